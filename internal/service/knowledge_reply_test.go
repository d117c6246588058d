package service

import (
	"testing"

	"scm-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnowledgeOnlyReply_KeepsSpecificAnswer(t *testing.T) {
	e := entry("ISSUE-03", "Quantity mismatch on ASN", "Check the UOM on the ASN line.")
	link := "https://wiki.example.com/asn"
	e.Link = &link

	reply := KnowledgeOnlyReply(e, "quantity mismatch on my ASN")

	assert.Contains(t, reply, "Check the UOM on the ASN line.")
	assert.Contains(t, reply, "[Reference link](https://wiki.example.com/asn)")
	assert.Contains(t, reply, "**Related resources**")
	assert.Contains(t, reply, "/screenshots/issues/quantity-mismatch-1.png")
	assert.Contains(t, reply, KnownIssuesDocumentURL)
}

func TestKnowledgeOnlyReply_GenericWithoutCategory(t *testing.T) {
	e := entry("", "Receiving steps", "In the given scenario, follow the usual steps.")

	reply := KnowledgeOnlyReply(e, "receiving stuck on the dock")

	assert.Equal(t, genericIssueFallback, reply)
}

func TestFormatEntries(t *testing.T) {
	first := entry("IB06", "What is IB06", "IB06 covers PO receiving")
	doc := "/documents/IB06.pdf"
	first.DocumentURL = &doc
	first.Screenshots = []string{"/screenshots/ib06-1.png", "/screenshots/ib06-2.png"}
	second := entry("IB07", "What is IB07", "IB07 covers returns")

	out := FormatEntries([]*models.KnowledgeEntry{first, second})

	assert.Equal(t, "IB06 covers PO receiving\n\n"+
		"[Download IB06 Execution Document](/documents/IB06.pdf)\n\n"+
		"![Screenshot 1](/screenshots/ib06-1.png)\n"+
		"![Screenshot 2](/screenshots/ib06-2.png)\n\n"+
		"IB07 covers returns", out)
}

func TestScenarioEntries(t *testing.T) {
	ranked := []*models.KnowledgeEntry{
		entry("IB02_WIT", "q", "wit"),
		entry("IB06", "q", "a1"),
		entry("IB06-B", "q", "a2"),
		entry("ib06", "q", "a3"),
		entry("IB06", "q", "a4"),
	}

	got := scenarioEntries(ranked, "IB06")
	assert.Len(t, got, 3)
	assert.Equal(t, "a1", got[0].Answer)

	assert.Empty(t, scenarioEntries(ranked, "OB07"))
}

func TestScenarioEntries_UncodedEntryNamingCode(t *testing.T) {
	ranked := []*models.KnowledgeEntry{
		entry("", "How is IB06 received?", "named"),
		entry("", "How is receiving done?", "unnamed"),
	}

	got := scenarioEntries(ranked, "IB-06")
	require.Len(t, got, 1)
	assert.Equal(t, "named", got[0].Answer)
	assert.Empty(t, scenarioEntries(ranked, "OB99"))
}

func TestScriptBlock(t *testing.T) {
	tmpl, ok := DefaultScriptCatalog().Lookup("IB02_WIT")
	assert.True(t, ok)

	block := ScriptBlock(tmpl, "")
	assert.Contains(t, block, "Here is the automation script for IB02_WIT:")
	assert.Contains(t, block, "```robotframework\n")
	assert.Contains(t, block, "[Download IB02_WIT script](/documents/scripts/IB02_WIT.robot)")
}
