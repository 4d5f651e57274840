// Package export renders search results into portable documents for
// download and sharing.
package export

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
)

var csvHeader = []string{
	"name", "brand", "category", "price", "rating", "review_count",
	"provider", "country", "availability", "features",
}

// WriteCSV renders results as a CSV document with a header row.
func WriteCSV(w io.Writer, results []*entities.SearchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.Name,
			r.Brand,
			r.Category,
			formatAmount(r.Price, r.Currency),
			strconv.FormatFloat(r.Rating, 'f', 1, 64),
			strconv.Itoa(r.ReviewCount),
			r.Provider.Name,
			r.Country,
			availabilityLabel(r.Availability),
			strings.Join(r.Features, "; "),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

var htmlTemplate = template.Must(template.New("results").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.6em; text-align: left; }
th { background: #f4f4f4; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<table>
<tr><th>Nom</th><th>Marque</th><th>Catégorie</th><th>Prix</th><th>Note</th><th>Avis</th><th>Fournisseur</th><th>Pays</th><th>Disponibilité</th><th>Caractéristiques</th></tr>
{{range .Rows}}<tr><td>{{.Name}}</td><td>{{.Brand}}</td><td>{{.Category}}</td><td>{{.Price}}</td><td>{{.Rating}}</td><td>{{.ReviewCount}}</td><td>{{.Provider}}</td><td>{{.Country}}</td><td>{{.Availability}}</td><td>{{.Features}}</td></tr>
{{end}}</table>
</body>
</html>
`))

type htmlRow struct {
	Name         string
	Brand        string
	Category     string
	Price        string
	Rating       string
	ReviewCount  int
	Provider     string
	Country      string
	Availability string
	Features     string
}

// WriteHTML renders results as a printable standalone HTML document.
func WriteHTML(w io.Writer, title string, results []*entities.SearchResult) error {
	rows := make([]htmlRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, htmlRow{
			Name:         r.Name,
			Brand:        r.Brand,
			Category:     r.Category,
			Price:        formatAmount(r.Price, r.Currency),
			Rating:       strconv.FormatFloat(r.Rating, 'f', 1, 64),
			ReviewCount:  r.ReviewCount,
			Provider:     r.Provider.Name,
			Country:      r.Country,
			Availability: availabilityLabel(r.Availability),
			Features:     strings.Join(r.Features, ", "),
		})
	}

	return htmlTemplate.Execute(w, struct {
		Title string
		Rows  []htmlRow
	}{Title: title, Rows: rows})
}

func availabilityLabel(a entities.Availability) string {
	switch a {
	case entities.AvailabilityInStock:
		return "En stock"
	case entities.AvailabilityOnOrder:
		return "Sur commande"
	case entities.AvailabilityUnavailable:
		return "Indisponible"
	default:
		return "Non renseigné"
	}
}

func formatAmount(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}
