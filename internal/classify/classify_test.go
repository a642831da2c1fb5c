package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_ReportPrefix(t *testing.T) {
	c := Default()
	assert.Equal(t, AgentResult, c.Classify("### Analysis Report\nAll clear."))
	assert.Equal(t, AgentResult, c.Classify("### Camera Analysis Result\nPatient resting."))
}

func TestClassify_KeywordMarkers(t *testing.T) {
	c := Default()
	for _, prompt := range []string{
		"Here is the Analysis Report you asked for",
		"Key Insights: rhythm is regular",
		"Strategic Recommendations follow below",
		"Executive Summary of the findings",
		"RESEARCH DATA FOR ANALYSIS attached",
	} {
		assert.Equal(t, AgentResult, c.Classify(prompt), "prompt %q", prompt)
	}
}

func TestClassify_DefaultsToUserQuery(t *testing.T) {
	c := Default()
	for _, prompt := range []string{
		"What does my ECG look like?",
		"",
		"## two hashes is not the report heading",
		"###no-space is not the report heading",
		"please check the patient room",
	} {
		assert.Equal(t, UserQuery, c.Classify(prompt), "prompt %q", prompt)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := Default()
	prompt := "### Analysis Report\nstable"
	first := c.Classify(prompt)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, c.Classify(prompt))
	}
}

func TestClassify_ZeroValueIsTotal(t *testing.T) {
	var c Classifier
	assert.Equal(t, UserQuery, c.Classify("### Analysis Report"))
}

func TestClassify_NoneTreatsEverythingAsUserQuery(t *testing.T) {
	c := None()
	assert.Equal(t, UserQuery, c.Classify("### Analysis Report"))
	assert.Equal(t, UserQuery, c.Classify("RESEARCH DATA FOR ANALYSIS: hr=72"))
}

func TestClassify_CustomMarkers(t *testing.T) {
	c := &Classifier{Prefixes: []string{">> "}, Markers: []string{"DONE"}}
	assert.Equal(t, AgentResult, c.Classify(">> result"))
	assert.Equal(t, AgentResult, c.Classify("task DONE"))
	assert.Equal(t, UserQuery, c.Classify("### Analysis Report"))
}
