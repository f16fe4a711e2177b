package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/policyqa/internal/app"
	"github.com/kailas-cloud/policyqa/internal/domain"
	qauc "github.com/kailas-cloud/policyqa/internal/usecase/qa"
)

var (
	askQuestion string
	askCountry  string
	askK        int
	askJSON     bool
	askPreview  int
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer one question from the command line",
	Long: `Retrieve context for a question and ask the generative model.

Examples:
  policyqa ask -q "What are Kenya's climate laws?" --country Kenya
  policyqa ask -q "How do coastal states fund adaptation?" -k 8 --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question (required)")
	askCmd.Flags().StringVarP(&askCountry, "country", "c", "",
		fmt.Sprintf("restrict context to one country (empty or %q means no filter)", domain.GeneralAnalogyLabel))
	askCmd.Flags().IntVarP(&askK, "k", "k", 0, "number of context documents (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().IntVar(&askPreview, "preview", domain.PreviewChars, "characters of each source to print")
	_ = askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, _ []string) error {
	a, err := app.Build(cmd.Context(), cfg, logger, app.Overrides{})
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer a.Close()

	ans, err := a.QA.Ask(cmd.Context(), askQuestion, askCountry, askK)
	if err != nil {
		if domain.IsRetrievalError(err) {
			return fmt.Errorf("could not retrieve context: %w", err)
		}
		return err
	}

	if askJSON {
		return renderAnswerJSON(cmd.OutOrStdout(), ans, askPreview)
	}
	renderAnswer(cmd.OutOrStdout(), ans, askPreview)
	return nil
}

type sourceJSON struct {
	Rank       int     `json:"rank"`
	Score      float64 `json:"score"`
	Country    string  `json:"country"`
	DocType    string  `json:"doc_type,omitempty"`
	SourceFile string  `json:"source_file,omitempty"`
	Preview    string  `json:"preview"`
}

type answerJSON struct {
	QueryID         string       `json:"query_id"`
	Question        string       `json:"question"`
	Country         string       `json:"country,omitempty"`
	Answer          string       `json:"answer"`
	GenerationError string       `json:"generation_error,omitempty"`
	NoContext       bool         `json:"no_context"`
	Sources         []sourceJSON `json:"sources"`
}

func renderAnswerJSON(w io.Writer, ans qauc.Answer, preview int) error {
	res := ans.Result
	out := answerJSON{
		QueryID:   ans.QueryID,
		Question:  ans.Question,
		Country:   res.CitedSources.CountryFilter,
		Answer:    res.AnswerText,
		NoContext: res.NoContext,
		Sources:   make([]sourceJSON, 0, res.CitedSources.Len()),
	}
	if res.Failed() {
		out.GenerationError = generationMessage(res.GenerationError)
	}
	for _, e := range res.CitedSources.Entries {
		md := e.Document.Metadata
		out.Sources = append(out.Sources, sourceJSON{
			Rank:       e.Rank,
			Score:      e.Score,
			Country:    md.Country,
			DocType:    md.DocType,
			SourceFile: md.SourceFile,
			Preview:    domain.Preview(e.Document.Text, preview),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	return nil
}

func renderAnswer(w io.Writer, ans qauc.Answer, preview int) {
	res := ans.Result

	fmt.Fprintln(w, "Answer")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	if res.Failed() {
		fmt.Fprintln(w, generationMessage(res.GenerationError))
	} else {
		fmt.Fprintln(w, res.AnswerText)
	}
	if res.NoContext {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "(no matching documents were found; the answer is not grounded in the corpus)")
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Retrieved context (%d)\n", res.CitedSources.Len())
	fmt.Fprintln(w, strings.Repeat("=", 70))
	for _, e := range res.CitedSources.Entries {
		md := e.Document.Metadata
		fmt.Fprintf(w, "--- [Source %d] %s (%s) score %.3f ---\n", e.Rank, md.Country, md.DocType, e.Score)
		if md.SourceFile != "" {
			fmt.Fprintf(w, "file: %s\n", md.SourceFile)
		}
		fmt.Fprintln(w, domain.Preview(e.Document.Text, preview))
		fmt.Fprintln(w)
	}
}

func generationMessage(err error) string {
	if errors.Is(err, domain.ErrConfiguration) {
		return "could not generate answer: generation API key is missing"
	}
	return "could not generate answer"
}
