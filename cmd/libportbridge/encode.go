package main

import (
	"encoding/json"
	"fmt"

	"portbridge/sdkerr"
)

func errorJSON(serr *sdkerr.SimpleError) string {
	b, err := json.Marshal(serr)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, serr.Message)
	}
	return string(b)
}

// parseTopics decodes a JSON array of topic names.
func parseTopics(doc string) ([]string, *sdkerr.SimpleError) {
	var topics []string
	if err := json.Unmarshal([]byte(doc), &topics); err != nil {
		return nil, sdkerr.Simplify(sdkerr.DecodeJSON(err))
	}
	return topics, nil
}

func encodeResult(v any) (string, *sdkerr.SimpleError) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", sdkerr.Other(fmt.Sprintf("encode result: %v", err))
	}
	return string(b), nil
}
