package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"scm-chat/internal/models"
)

// feedbackExcerptLen bounds how much of a rejected reply is quoted back.
const feedbackExcerptLen = 200

var testCaseRequest = regexp.MustCompile(`(?i)\b(?:test\s*cases?|tc|scripts?|automation|robot\s*framework|steps\s+to\s+execute)\b`)

// IsTestCaseRequest reports a message that asks for test cases or scripts.
func IsTestCaseRequest(message string) bool {
	return testCaseRequest.MatchString(message)
}

// PromptInput is everything the system prompt is assembled from.
type PromptInput struct {
	Knowledge       []*models.KnowledgeEntry
	Feedback        []*models.FeedbackRecord
	ScriptRequested bool
	ScriptKeys      []string
}

const promptIntro = `You are SCM AI, a helpful supply chain management assistant. You help users with questions about SAP, purchase orders, inventory management, logistics, warehouse operations, MAWM (Manhattan Active Warehouse Management), and more.`

const promptGuidelines = `Important guidelines:
- Answer naturally and conversationally, as if you have this knowledge yourself
- NEVER mention that you're using a knowledge base, Excel file, or database
- If there's a relevant link in the knowledge base, include it naturally in your response as a clickable link
- Be concise but thorough
- Use formatting like bullet points when listing steps
- For acronyms like PO (Purchase Order), SAP, MAWM (Manhattan Active Warehouse Management), OCL (Order Consolidation Location), ASN (Advance Shipping Notice), explain them briefly the first time

Error Solving Capabilities:
- When users report errors or issues, first check if there's a matching error scenario in the knowledge base (SCN codes starting with ERROR- or ISSUE-)
- If you find a matching error with a resolution, provide the solution step-by-step clearly and concisely
- If no exact match is found in the knowledge base, use your expertise to analyze the error and provide the best possible solution
- Ask specific questions to understand the context when needed (which transaction, which step, what error message)
- Common error categories to address:
  * RTC/WIT issues: Check Auto Transport settings, Smartsim configurations
  * New item errors: Check New Item Flag status in item facilities
  * Consolidation/OCL errors: Verify a Consolidation Location exists and is assigned to the consolidation group
  * Quantity mismatches: Compare SAP vs MAWM quantities, check UOM conversion and ASN tolerance
  * Expiry date errors: Verify Min Max dates in SAP, check if item is properly configured as expiry dated
  * Catch weight errors: Update tolerance values for ASN
  * Receiving errors: Verify ASN status, check PO details, confirm item profiling
  * Putaway errors: Check location availability, verify task group assignments, confirm zone configurations
  * Data mismatch errors: Compare SAP vs MAWM data, check synchronization status
  * Permission errors: Verify user roles and access rights
- Always provide actionable next steps
- If the error is complex, suggest contacting the appropriate team with specific details to share`

// BuildSystemPrompt assembles the instructions handed to the model.
func BuildSystemPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString(promptIntro)
	b.WriteString("\n\n")

	if block := feedbackBlock(in.Feedback); block != "" {
		b.WriteString(block)
		b.WriteString("\n\n")
	}

	if in.ScriptRequested {
		b.WriteString("SCRIPT / TEST CASE REQUEST DETECTED:\n")
		b.WriteString("The user is asking for test case details or an automation script. ")
		b.WriteString("Describe the test steps from the knowledge base. Never invent script code.")
		if len(in.ScriptKeys) > 0 {
			fmt.Fprintf(&b, " Automation scripts exist only for: %s. If the user names one of these, ask them to mention the scenario code so the script can be shared.", strings.Join(in.ScriptKeys, ", "))
		}
		b.WriteString("\n\n")
	}

	if len(in.Knowledge) > 0 {
		b.WriteString("Use the following knowledge base to answer questions:\n\n")
		b.WriteString(KnowledgeContext(in.Knowledge))
		b.WriteString("\n\n")
		b.WriteString(resourceInstructions(in.Knowledge))
		b.WriteString("\n\n")
	}

	b.WriteString(promptGuidelines)
	return b.String()
}

// KnowledgeContext formats entries as SCN/Q/A/Link/Execution Document/Screenshots blocks.
func KnowledgeContext(entries []*models.KnowledgeEntry) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		var b strings.Builder
		if code := e.Code(); code != "" {
			fmt.Fprintf(&b, "SCN: %s\n", code)
		}
		fmt.Fprintf(&b, "Q: %s\nA: %s", e.Question, e.Answer)
		if link := e.LinkURL(); link != "" {
			fmt.Fprintf(&b, "\nLink: %s", link)
		}
		if doc := e.Document(); doc != "" {
			fmt.Fprintf(&b, "\nExecution Document: %s", doc)
		}
		if len(e.Screenshots) > 0 {
			fmt.Fprintf(&b, "\nScreenshots: %s", strings.Join(e.Screenshots, ", "))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func resourceInstructions(entries []*models.KnowledgeEntry) string {
	var docs, links, shots []string
	for _, e := range entries {
		label := e.Code()
		if label == "" {
			label = "this scenario"
		}
		if doc := e.Document(); doc != "" {
			docs = append(docs, fmt.Sprintf("- [Download %s Execution Document](%s)", label, doc))
		}
		if link := e.LinkURL(); link != "" {
			links = append(links, fmt.Sprintf("- %s: %s", label, link))
		}
		for _, s := range e.Screenshots {
			shots = append(shots, fmt.Sprintf("- ![%s screenshot](%s)", label, s))
		}
	}

	var b strings.Builder
	if len(docs) > 0 {
		b.WriteString("IMPORTANT - Execution Documents Available. You MUST include these links in your response exactly as written:\n")
		b.WriteString(strings.Join(docs, "\n"))
	} else {
		b.WriteString(`If the user asks for an execution document, clearly state: "I don't have an execution document available for this scenario."`)
	}
	if len(links) > 0 {
		b.WriteString("\n\nYou MUST include these reference links as clickable markdown links:\n")
		b.WriteString(strings.Join(links, "\n"))
	}
	if len(shots) > 0 {
		b.WriteString("\n\nYou MUST include these screenshots using markdown image syntax:\n")
		b.WriteString(strings.Join(shots, "\n"))
	}
	return b.String()
}

func feedbackBlock(records []*models.FeedbackRecord) string {
	var lines []string
	for _, fb := range records {
		if fb.UserComment == nil || strings.TrimSpace(*fb.UserComment) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. Bad response: \"%s\"\n   What was wrong: %s",
			len(lines)+1, excerpt(fb.MessageContent, feedbackExcerptLen), strings.TrimSpace(*fb.UserComment)))
	}
	if len(lines) == 0 {
		return ""
	}
	return "LEARN FROM PAST MISTAKES:\nUsers marked these earlier responses as unhelpful. Do NOT repeat these mistakes:\n" +
		strings.Join(lines, "\n")
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
