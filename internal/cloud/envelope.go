// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"encoding/json"
	"strings"
)

// EmptyCompletion is returned when no envelope shape yields text.
const EmptyCompletion = "{}"

// envelope holds the top-level fields of a response body, undecoded. Each
// extractor decodes only the field it reads, so a field with an unexpected
// type skips that shape and nothing else.
type envelope map[string]json.RawMessage

// extractors is the closed, ordered set of envelope readers.
var extractors = []func(envelope) string{
	responsesText,
	chatText,
}

// responsesText reads output[].content[].text.
func responsesText(e envelope) string {
	var output []struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if !decodeField(e, "output", &output) {
		return ""
	}
	for _, item := range output {
		for _, part := range item.Content {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

// chatText reads choices[0].message.content. Content is either a string or
// a list of {type, text} parts.
func chatText(e envelope) string {
	var choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	}
	if !decodeField(e, "choices", &choices) || len(choices) == 0 {
		return ""
	}
	raw := choices[0].Message.Content

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func decodeField(e envelope, key string, v any) bool {
	raw, ok := e[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// ExtractText returns the first non-empty text found by the known envelope
// readers, or EmptyCompletion.
func ExtractText(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return EmptyCompletion
	}
	for _, extract := range extractors {
		if text := extract(env); strings.TrimSpace(text) != "" {
			return text
		}
	}
	return EmptyCompletion
}
