package service

import (
	"strings"
	"testing"

	"scm-chat/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt_Sections(t *testing.T) {
	e := entry("IB06", "What is IB06", "IB06 covers PO receiving")
	doc := "/documents/IB06.pdf"
	e.DocumentURL = &doc

	comment := "wrong transaction code"
	prompt := BuildSystemPrompt(PromptInput{
		Knowledge: []*models.KnowledgeEntry{e},
		Feedback: []*models.FeedbackRecord{
			{MessageContent: "Use VL02N", FeedbackType: models.FeedbackNegative, UserComment: &comment},
		},
		ScriptRequested: true,
		ScriptKeys:      []string{"IB02_WIT", "OB07"},
	})

	assert.True(t, strings.HasPrefix(prompt, promptIntro))
	assert.True(t, strings.HasSuffix(prompt, promptGuidelines))
	assert.Contains(t, prompt, "1. Bad response: \"Use VL02N\"\n   What was wrong: wrong transaction code")
	assert.Contains(t, prompt, "Automation scripts exist only for: IB02_WIT, OB07.")
	assert.Contains(t, prompt, "SCN: IB06\nQ: What is IB06\nA: IB06 covers PO receiving\nExecution Document: /documents/IB06.pdf")
	assert.Contains(t, prompt, "- [Download IB06 Execution Document](/documents/IB06.pdf)")

	feedbackAt := strings.Index(prompt, "LEARN FROM PAST MISTAKES")
	scriptAt := strings.Index(prompt, "SCRIPT / TEST CASE REQUEST DETECTED")
	knowledgeAt := strings.Index(prompt, "Use the following knowledge base")
	assert.Less(t, feedbackAt, scriptAt)
	assert.Less(t, scriptAt, knowledgeAt)
}

func TestBuildSystemPrompt_NoDocumentNotice(t *testing.T) {
	prompt := BuildSystemPrompt(PromptInput{
		Knowledge: []*models.KnowledgeEntry{entry("IB07", "What is IB07", "IB07 covers returns")},
	})

	assert.Contains(t, prompt, "I don't have an execution document available for this scenario.")
	assert.NotContains(t, prompt, "LEARN FROM PAST MISTAKES")
	assert.NotContains(t, prompt, "SCRIPT / TEST CASE REQUEST DETECTED")
}

func TestFeedbackBlock_SkipsUncommented(t *testing.T) {
	blank := " "
	assert.Empty(t, feedbackBlock([]*models.FeedbackRecord{
		{MessageContent: "a"},
		{MessageContent: "b", UserComment: &blank},
	}))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short reply", excerpt("short   reply", 200))

	long := strings.Repeat("я", 250)
	got := excerpt(long, 200)
	assert.Equal(t, strings.Repeat("я", 200)+"...", got)
}

func TestIsTestCaseRequest(t *testing.T) {
	assert.True(t, IsTestCaseRequest("show me the test cases for IB01"))
	assert.True(t, IsTestCaseRequest("robot framework steps"))
	assert.False(t, IsTestCaseRequest("what is a purchase order"))
}
