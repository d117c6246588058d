package service

import (
	"fmt"
	"strings"

	"scm-chat/internal/models"
)

// maxScenarioAnswers caps how many entries a scenario reply quotes.
const maxScenarioAnswers = 3

// KnownIssuesDocumentURL is attached to replies about the known issue categories.
const KnownIssuesDocumentURL = "/documents/SCM_Known_Issues.pdf"

// IssueCategory is a known issue with a canned answer and reference screenshots.
type IssueCategory struct {
	Name        string
	Terms       []string
	Replacement string
	Screenshots []string
}

func (c IssueCategory) matches(lowerMessage string) bool {
	for _, term := range c.Terms {
		if strings.Contains(lowerMessage, term) {
			return true
		}
	}
	return false
}

var issueCategories = []IssueCategory{
	{
		Name:        "consolidation",
		Terms:       []string{"consolidat", "ocl"},
		Replacement: "OCL not assigned: Create/verify a Consolidation Location (OCL) for the order's consolidation group in MAWM, confirm the location is active and linked to the right zone, then re-run the consolidation task.",
		Screenshots: []string{
			"/screenshots/issues/ocl-not-assigned-1.png",
			"/screenshots/issues/ocl-not-assigned-2.png",
		},
	},
	{
		Name:        "new_item",
		Terms:       []string{"new item"},
		Replacement: "New item error: Check the New Item Flag on the item facility record, make sure the item is profiled (dimensions, UOM, putaway type) and synced from SAP, then retry receiving.",
		Screenshots: []string{
			"/screenshots/issues/new-item-flag-1.png",
		},
	},
	{
		Name:        "quantity",
		Terms:       []string{"quantity", "qty"},
		Replacement: "Quantity mismatch: Compare the PO/ASN quantity in SAP with the quantity received in MAWM, check UOM conversion and tolerance settings, then adjust or re-sync the ASN.",
		Screenshots: []string{
			"/screenshots/issues/quantity-mismatch-1.png",
			"/screenshots/issues/quantity-mismatch-2.png",
		},
	},
}

const genericIssueFallback = "I found a related entry for this issue. Please use the resources below for the resolution steps."

// MatchIssueCategory returns the first known issue category the message is about.
func MatchIssueCategory(message string) (IssueCategory, bool) {
	lower := strings.ToLower(message)
	for _, c := range issueCategories {
		if c.matches(lower) {
			return c, true
		}
	}
	return IssueCategory{}, false
}

// KnowledgeOnlyReply renders the top ranked entry without calling the model.
// Generic template answers are swapped for the canned text of the issue category.
func KnowledgeOnlyReply(top *models.KnowledgeEntry, message string) string {
	category, hasCategory := MatchIssueCategory(message)

	body := top.Answer
	if IsGenericAnswer(top.Answer) {
		body = genericIssueFallback
		if hasCategory {
			body = category.Replacement
		}
	}

	var b strings.Builder
	b.WriteString(body)
	writeReferences(&b, top)

	if hasCategory {
		b.WriteString("\n\n**Related resources**\n")
		fmt.Fprintf(&b, "- [Known issues document](%s)", KnownIssuesDocumentURL)
		for i, url := range category.Screenshots {
			fmt.Fprintf(&b, "\n![%s screenshot %d](%s)", category.Name, i+1, url)
		}
	}
	return b.String()
}

// FormatEntries renders answers with their links, documents and screenshots.
func FormatEntries(entries []*models.KnowledgeEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		var b strings.Builder
		b.WriteString(e.Answer)
		writeReferences(&b, e)
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

func writeReferences(b *strings.Builder, e *models.KnowledgeEntry) {
	if link := e.LinkURL(); link != "" {
		fmt.Fprintf(b, "\n\n[Reference link](%s)", link)
	}
	if doc := e.Document(); doc != "" {
		label := "Download Execution Document"
		if code := e.Code(); code != "" {
			label = "Download " + code + " Execution Document"
		}
		fmt.Fprintf(b, "\n\n[%s](%s)", label, doc)
	}
	for i, url := range e.Screenshots {
		if i == 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(b, "\n![Screenshot %d](%s)", i+1, url)
	}
}

// scenarioEntries picks up to three ranked entries about code: its scn_code is the
// same scenario, or it has no scn_code and the question names the code.
func scenarioEntries(ranked []*models.KnowledgeEntry, code string) []*models.KnowledgeEntry {
	core := CoreCode(code)
	var out []*models.KnowledgeEntry
	for _, e := range ranked {
		c := e.Code()
		switch {
		case c != "":
			if !SameScenario(c, code) && CoreCode(c) != core {
				continue
			}
		case !mentionsCode(e.Question, code):
			continue
		}
		out = append(out, e)
		if len(out) == maxScenarioAnswers {
			break
		}
	}
	return out
}

var codeSeparators = strings.NewReplacer("-", "", "_", "")

// mentionsCode reports whether text contains code, ignoring case and separators.
func mentionsCode(text, code string) bool {
	squashed := codeSeparators.Replace(strings.ToUpper(code))
	if squashed == "" {
		return false
	}
	return strings.Contains(codeSeparators.Replace(strings.ToUpper(text)), squashed)
}

// ScriptBlock renders the script fenced with its language and a download line.
func ScriptBlock(t ScriptTemplate, baseURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is the automation script for %s:\n\n", t.Key)
	fmt.Fprintf(&b, "```%s\n%s\n```\n\n", t.Language, t.Body)
	fmt.Fprintf(&b, "[Download %s script](%s%s)", t.Key, strings.TrimRight(baseURL, "/"), t.DownloadPath())
	return b.String()
}
