package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrNotObject is returned when a document's root is valid JSON but not an object.
	ErrNotObject = errors.New("document root is not a JSON object")
	// ErrTrailingData is returned when a document has content after its root value.
	ErrTrailingData = errors.New("unexpected data after JSON document")
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Decode parses a processed-messages document.
//
// Only invalid JSON or a non-object root is an error. Fields of the wrong type
// are treated as absent and never fail the document.
func Decode(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	dec.UseNumber()

	var root interface{}
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	var extra interface{}
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}

	obj, ok := root.(map[string]interface{})
	if !ok {
		return nil, ErrNotObject
	}

	return decodeDocument(obj), nil
}

func decodeDocument(obj map[string]interface{}) *Document {
	doc := &Document{}

	items, ok := obj["processed_messages"].([]interface{})
	if !ok {
		return doc
	}

	doc.ProcessedMessages = make([]Message, 0, len(items))
	for _, item := range items {
		msg, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		doc.ProcessedMessages = append(doc.ProcessedMessages, decodeMessage(msg))
	}

	return doc
}

func decodeMessage(obj map[string]interface{}) Message {
	msg := Message{}

	if original, ok := obj["original_message"].(map[string]interface{}); ok {
		msg.Original = OriginalMessage{
			ID:            textField(original, "id"),
			DateFormatted: textField(original, "date_formatted"),
			Text:          textField(original, "message"),
			Hashtags:      stringList(original["hashtags_found"]),
		}
	}

	raw, present := obj["openai_analysis"]
	if !present || !truthy(raw) {
		return msg
	}

	msg.Analysis = &Analysis{}
	if analysis, ok := raw.(map[string]interface{}); ok {
		msg.Analysis = decodeAnalysis(analysis)
	}

	return msg
}

func decodeAnalysis(obj map[string]interface{}) *Analysis {
	a := &Analysis{Skip: truthy(obj["skip"])}

	if reports, ok := obj["reports"].([]interface{}); ok {
		a.Reports = make([]SubReport, 0, len(reports))
		for _, item := range reports {
			report, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			a.Reports = append(a.Reports, decodeSubReport(report))
		}
	}

	if seg, ok := obj["segmentation"].(map[string]interface{}); ok {
		if segments, ok := seg["segments"].([]interface{}); ok {
			a.Segmentation = &Segmentation{Segments: make([]Segment, 0, len(segments))}
			for _, item := range segments {
				segment, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				a.Segmentation.Segments = append(a.Segmentation.Segments, Segment{
					Label:       textField(segment, "label"),
					TextExcerpt: textField(segment, "text_excerpt"),
				})
			}
		}
	}

	return a
}

func decodeSubReport(obj map[string]interface{}) SubReport {
	r := SubReport{
		InterviewCity:        textField(obj, "interview_city"),
		InterviewDate:        textField(obj, "interview_date"),
		Outcome:              textField(obj, "outcome"),
		QueueAndProcessNotes: textField(obj, "queue_and_process_notes"),
		TipsAndNotes:         textField(obj, "tips_and_notes"),
		DurationMinutes:      numberField(obj, "duration_minutes"),
		Confidence:           numberField(obj, "confidence"),
	}

	if examiner, ok := obj["examiner"].(map[string]interface{}); ok {
		r.Examiner = &Examiner{
			Name:  textField(examiner, "name"),
			Label: textField(examiner, "label"),
		}
	}

	if questions, ok := obj["questions"].(map[string]interface{}); ok {
		r.Questions = &Questions{
			RawList:         stringList(questions["raw_list"]),
			CanonicalTopics: stringList(questions["canonical_topics"]),
		}
	}

	if documents, ok := obj["documents"].(map[string]interface{}); ok {
		r.Documents = &Documents{Mentioned: stringList(documents["mentioned"])}
	}

	if candidate, ok := obj["candidate"].(map[string]interface{}); ok {
		r.Candidate = &Candidate{
			Who:         textField(candidate, "who"),
			Gender:      textField(candidate, "gender"),
			Age:         textField(candidate, "age"),
			PolishStudy: textField(candidate, "polish_study"),
		}
	}

	if next, ok := obj["next_steps"].(map[string]interface{}); ok {
		r.NextSteps = &NextSteps{
			DecisionOrPickupDate: textField(next, "decision_or_pickup_date"),
			PromisedAction:       textField(next, "promised_action"),
		}
	}

	return r
}

// textField returns a scalar field as display text; anything else is absent.
func textField(obj map[string]interface{}, key string) string {
	s, _ := text(obj[key])
	return s
}

func text(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

func numberField(obj map[string]interface{}, key string) *float64 {
	var (
		f   float64
		err error
	)

	switch val := obj[key].(type) {
	case json.Number:
		f, err = val.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(val), 64)
	default:
		return nil
	}

	if err != nil {
		return nil
	}

	return &f
}

// stringList keeps the scalar elements of a JSON array, in order.
func stringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := text(item); ok {
			out = append(out, s)
		}
	}

	return out
}

// truthy follows JavaScript truthiness, which is what the upstream producer assumes.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}
