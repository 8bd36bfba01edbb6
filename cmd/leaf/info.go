package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/leaf/internal/api"
	"github.com/jackzampolin/leaf/internal/document"
	"github.com/jackzampolin/leaf/internal/layout"
)

var infoScale float64

// documentInfo is the output of `leaf info`.
type documentInfo struct {
	Path        string              `json:"path" yaml:"path"`
	PageCount   int                 `json:"page_count" yaml:"page_count"`
	Scale       float64             `json:"scale" yaml:"scale"`
	TotalHeight float64             `json:"total_height" yaml:"total_height"`
	MaxWidth    float64             `json:"max_width" yaml:"max_width"`
	Pages       []document.PageSize `json:"pages" yaml:"pages"`
}

var infoCmd = &cobra.Command{
	Use:   "info <pdf>",
	Short: "Show document page geometry",
	Long: `Show a document's page sizes and its continuous-scroll layout.

Examples:
  leaf info book.pdf
  leaf info book.pdf --scale 2.0 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := document.Open(args[0])
		if err != nil {
			return err
		}

		l := layout.Compute(doc.PageSizes(), infoScale, 0)
		return api.Output(documentInfo{
			Path:        doc.Path(),
			PageCount:   doc.PageCount(),
			Scale:       l.Scale,
			TotalHeight: l.TotalHeight,
			MaxWidth:    l.MaxWidth,
			Pages:       doc.PageSizes(),
		})
	},
}

func init() {
	infoCmd.Flags().Float64Var(&infoScale, "scale", 1.0, "layout scale")

	rootCmd.AddCommand(infoCmd)
}
