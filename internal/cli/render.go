package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/greenscope/backend/internal/domain"
)

type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	dim   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label: lipgloss.NewStyle().Bold(true),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// ratingStyle colors text with the rating's hex token
func ratingStyle(rating domain.Rating) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(rating.Color))
}

func renderScoreLine(score float64, rating domain.Rating) string {
	return ratingStyle(rating).Render(fmt.Sprintf("%.1f/10 %s", score, rating.Label))
}

func renderScore(score float64, rating domain.Rating) string {
	s := newStyles()
	return fmt.Sprintf("%s %s\n", s.label.Render("Score:"), renderScoreLine(score, rating))
}

func renderProduct(p *domain.Product, rating domain.Rating) string {
	s := newStyles()
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", s.title.Render(p.Name))
	fmt.Fprintf(&b, "%s\n\n", s.dim.Render(fmt.Sprintf("%s · %s · source %s", p.Brand, p.Barcode, p.Source)))
	fmt.Fprintf(&b, "%s %s\n\n", s.label.Render("Sustainability:"), renderScoreLine(p.SustainabilityScore, rating))

	rows := []struct {
		label string
		value string
	}{
		{"Description", p.Description},
		{"Recycling", p.RecyclabilityInfo},
		{"Environment", p.EnvironmentalImpact},
		{"Health", p.HealthEffects},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", s.label.Render(row.label+":"), row.value)
	}

	if len(p.Ingredients) > 0 {
		fmt.Fprintf(&b, "%s %s\n", s.label.Render("Ingredients:"), strings.Join(p.Ingredients, ", "))
	} else {
		fmt.Fprintf(&b, "%s %s\n", s.label.Render("Ingredients:"), s.dim.Render("none listed"))
	}

	if p.ImageURL != "" {
		fmt.Fprintf(&b, "%s %s\n", s.label.Render("Image:"), p.ImageURL)
	}

	return b.String()
}
