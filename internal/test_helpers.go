package internal

import (
	"reflect"
	"testing"
	"time"
)

// FixtureDocument is a processed-messages document with three reports
// (two with questions, consulates варшава and краков), one skipped message
// and one message without analysis.
const FixtureDocument = `{
  "processed_messages": [
    {
      "original_message": {
        "id": 1,
        "date_formatted": "2025-01-10 10:00:00",
        "message": "Собеседование в Варшаве прошло хорошо, спрашивали про историю.",
        "hashtags_found": ["#варшава", "#карта_поляка"]
      },
      "openai_analysis": {
        "skip": false,
        "reports": [
          {
            "interview_city": "Варшава",
            "examiner": {"name": "Анна", "label": "консул"},
            "questions": {
              "raw_list": ["Кто был первым королём Польши?", "Почему вы хотите получить Карту поляка?"],
              "canonical_topics": ["history", "motivation"]
            },
            "confidence": 0.9
          }
        ],
        "segmentation": {"segments": [{"label": "intro", "text_excerpt": "Собеседование в Варшаве"}]}
      }
    },
    {
      "original_message": {
        "id": 2,
        "date_formatted": "2025-02-15 12:30:00",
        "message": "Краков, очередь небольшая.",
        "hashtags_found": ["#краков"]
      },
      "openai_analysis": {
        "reports": [{"questions": {"raw_list": ["Какие польские праздники вы знаете?"]}}]
      }
    },
    {
      "original_message": {
        "id": 3,
        "date_formatted": "2025-03-01",
        "message": "Получила карту, спасибо всем!",
        "hashtags_found": ["#виза"]
      },
      "openai_analysis": {"skip": false, "reports": []}
    },
    {
      "original_message": {"id": 4, "date_formatted": "2025-03-02", "message": "реклама", "hashtags_found": []},
      "openai_analysis": {"skip": true}
    },
    {
      "original_message": {"id": 5, "date_formatted": "2025-03-03", "message": "без анализа", "hashtags_found": []}
    }
  ]
}`

// TestHelper provides common testing utilities
type TestHelper struct {
	t *testing.T
}

// NewTestHelper creates a new test helper
func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// AssertNoError fails the test if err is not nil
func (th *TestHelper) AssertNoError(err error) {
	th.t.Helper()
	if err != nil {
		th.t.Fatalf("Expected no error, got: %v", err)
	}
}

// AssertError fails the test if err is nil
func (th *TestHelper) AssertError(err error) {
	th.t.Helper()
	if err == nil {
		th.t.Fatal("Expected an error, got nil")
	}
}

// AssertEqual fails the test if expected != actual
func (th *TestHelper) AssertEqual(expected, actual interface{}) {
	th.t.Helper()
	if expected != actual {
		th.t.Fatalf("Expected %v, got %v", expected, actual)
	}
}

// AssertDeepEqual fails the test if expected and actual differ structurally
func (th *TestHelper) AssertDeepEqual(expected, actual interface{}) {
	th.t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		th.t.Fatalf("Expected %v, got %v", expected, actual)
	}
}

// MockTime returns a fixed time for testing
func MockTime() time.Time {
	return time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
}
