package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/surya021104/bug-tracker/internal/analyzer"
	"github.com/surya021104/bug-tracker/internal/model"
)

var signatureFlags struct {
	file string
	url  string
}

var signatureCmd = &cobra.Command{
	Use:   "signature",
	Short: "Show how a raw signal is interpreted and fingerprinted",
	Long: "Reads one JSON signal from --file or stdin and prints the interpreted\n" +
		"signal, its duplicate signature and the heuristic classification.",
	Args: cobra.NoArgs,
	RunE: runSignature,
}

func init() {
	f := signatureCmd.Flags()
	f.StringVarP(&signatureFlags.file, "file", "f", "-", "signal JSON file, - for stdin")
	f.StringVar(&signatureFlags.url, "url", "", "page URL (defaults to the signal's url field)")
}

type signatureView struct {
	Interpreted model.InterpretedSignal `json:"interpreted" yaml:"interpreted"`
	URL         string                  `json:"url" yaml:"url"`
	Signature   string                  `json:"signature" yaml:"signature"`
	Severity    model.Severity          `json:"classifiedSeverity" yaml:"classifiedSeverity"`
	Category    string                  `json:"classifiedCategory" yaml:"classifiedCategory"`
	TitleKey    string                  `json:"looseTitleKey" yaml:"looseTitleKey"`
}

func runSignature(cmd *cobra.Command, _ []string) error {
	var in io.Reader = cmd.InOrStdin()
	if signatureFlags.file != "-" {
		f, err := os.Open(signatureFlags.file)
		if err != nil {
			return fmt.Errorf("open signal: %w", err)
		}
		defer f.Close()
		in = f
	}

	var raw model.RawSignal
	if err := json.NewDecoder(in).Decode(&raw); err != nil {
		return fmt.Errorf("decode signal: %w", err)
	}

	url := signatureFlags.url
	if url == "" {
		url = raw.String("url")
	}

	sig := analyzer.Interpret(raw)
	class := analyzer.Classify(sig.Title, sig.Message)
	view := signatureView{
		Interpreted: sig,
		URL:         analyzer.CleanURL(url),
		Signature:   analyzer.Signature(sig, url),
		Severity:    class.Severity,
		Category:    class.Category,
		TitleKey:    analyzer.LooseTitleKey(sig.Title),
	}

	return render(cmd.OutOrStdout(), rootFlags.output, view, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Type:\t%s\n", sig.Type)
		fmt.Fprintf(tw, "Title:\t%s\n", sig.Title)
		fmt.Fprintf(tw, "Severity:\t%s\n", sig.Severity)
		fmt.Fprintf(tw, "URL:\t%s\n", view.URL)
		fmt.Fprintf(tw, "Signature:\t%s\n", view.Signature)
		fmt.Fprintf(tw, "Classified:\t%s / %s\n", class.Severity, class.Category)
		fmt.Fprintf(tw, "Title key:\t%s\n", view.TitleKey)
	})
}
