package model

import (
	"os"
	"testing"
)

func mustReadBpmn(t *testing.T, fileName string) string {
	fileName = "../test/bpmn/" + fileName

	b, err := os.ReadFile(fileName)
	if err != nil {
		t.Fatalf("failed to read BPMN file %s: %v", fileName, err)
	}

	return string(b)
}

func mustParse(t *testing.T, fileName string) *Document {
	document, err := Parse(mustReadBpmn(t, fileName))
	if err != nil {
		t.Fatalf("failed to parse BPMN XML: %v", err)
	}

	return document
}
