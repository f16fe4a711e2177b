package answer

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/policyqa/internal/domain"
)

// SystemInstruction is the fixed analyst instruction prepended to every prompt.
const SystemInstruction = "You are an expert global-climate-policy analyst.\n" +
	"Use ONLY the provided context from national climate laws and NAPs\n" +
	"to answer the user's question concisely and factually.\n" +
	"Cite sources as [Source N], where N is the number of the source in the context.\n" +
	"If the question refers to a non-indexed country,\n" +
	"respond by analogy from similar regional examples."

// BuildContext renders the bundle as numbered source blocks in bundle order.
// An empty bundle renders as "".
func BuildContext(bundle domain.ContextBundle) string {
	var b strings.Builder
	for i, e := range bundle.Entries {
		fmt.Fprintf(&b, "[Source %d: %s (%s)]\n%s\n\n",
			i+1, e.Document.Metadata.Country, e.Document.Metadata.DocType, e.Document.Text)
	}
	return b.String()
}

// BuildPrompt assembles instruction, question and context. Equal inputs give byte-identical output.
func BuildPrompt(question string, bundle domain.ContextBundle) string {
	return SystemInstruction + "\n\n" +
		"Question:\n" + question + "\n\n" +
		"Context:\n" + BuildContext(bundle)
}
