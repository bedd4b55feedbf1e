package narrative

import (
	"fmt"
	"strings"
)

// Prompts holds the instructions sent to the collaborator.
type Prompts struct {
	System string
}

func DefaultPrompts() Prompts {
	return Prompts{System: systemPrompt}
}

const systemPrompt = `You are an insurance claim compliance reviewer.
Review the claim photos and documents against the client rules.
Report the vehicle details and a compliance percentage using these labels, one per line:
Claim Number:
VIN:
Year:
Make:
Model:
Mileage:
Compliance Score: <0-100>%
Then list every compliance issue and every fraud concern you see, including
duplicate or inconsistent photos and suspicious edits.`

// User renders the per-claim message text.
func (p Prompts) User(fileNumber, policy, hints, documents string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File #: %s\n\n", fileNumber)
	fmt.Fprintf(&b, "CLIENT RULES:\n%s\n\n", strings.TrimSpace(policy))
	if hints != "" {
		fmt.Fprintf(&b, "%s\n\n", hints)
	}
	if strings.TrimSpace(documents) == "" {
		b.WriteString("DOCUMENTS: none")
	} else {
		fmt.Fprintf(&b, "DOCUMENTS:\n%s", documents)
	}
	return b.String()
}
