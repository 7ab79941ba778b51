package form

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"predictd/internal/features"
	"predictd/internal/inference"
)

var (
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highStyle  = boxStyle.Foreground(lipgloss.Color("9")).BorderForeground(lipgloss.Color("9")).Bold(true)
	lowStyle   = boxStyle.Foreground(lipgloss.Color("10")).BorderForeground(lipgloss.Color("10")).Bold(true)
	priceStyle = boxStyle.Foreground(lipgloss.Color("12")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	noteStyle  = lipgloss.NewStyle().Faint(true)
)

// Render formats a prediction for the terminal.
func Render(res inference.Result) string {
	var box string
	switch {
	case res.Class != nil && *res.Class == 1:
		box = highStyle.Render(fmt.Sprintf("High Risk: the model predicts presence of heart disease (probability: %.2f%%)", pct(res)))
	case res.Class != nil:
		box = lowStyle.Render(fmt.Sprintf("Low Risk: the model predicts no heart disease (probability of disease: %.2f%%)", pct(res)))
	case len(res.Values) > 0:
		box = priceStyle.Render(fmt.Sprintf("Predicted price: %.2f", res.Values[0]))
	default:
		box = boxStyle.Render("No prediction")
	}
	note := fmt.Sprintf("model %s version %s (%s)", res.Model.Name, res.Model.Version, res.Model.Backend)
	return lipgloss.JoinVertical(lipgloss.Left, box, noteStyle.Render(note))
}

// RenderError formats a prediction failure, naming the field for input faults.
func RenderError(err error) string {
	if field, _ := features.FieldOf(err); field != "" {
		return errStyle.Render(fmt.Sprintf("Invalid %s: %v", field, err))
	}
	return errStyle.Render(err.Error())
}

func pct(res inference.Result) float64 {
	if res.ProbabilityPct == nil {
		return 0
	}
	return *res.ProbabilityPct
}
