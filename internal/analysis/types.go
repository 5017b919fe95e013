// Package analysis models the processed-message documents produced by the
// upstream analysis step and decodes them leniently.
package analysis

// SourceDocument pairs a parsed document with the identifier of the file it came from.
type SourceDocument struct {
	ID       string
	Document *Document
}

// Document is one processed-messages file.
type Document struct {
	ProcessedMessages []Message `json:"processed_messages"`
}

// Message is a single source message plus its optional analysis.
type Message struct {
	Original OriginalMessage `json:"original_message"`
	// Analysis is nil when the message carries no openai_analysis.
	Analysis *Analysis `json:"openai_analysis,omitempty"`
}

// OriginalMessage holds the raw chat message.
type OriginalMessage struct {
	ID            string   `json:"id"`
	DateFormatted string   `json:"date_formatted"`
	Text          string   `json:"message"`
	Hashtags      []string `json:"hashtags_found"`
}

// Analysis is the result of analysing one message. A message may describe
// several interviews, each captured as a SubReport.
type Analysis struct {
	Skip         bool          `json:"skip"`
	Reports      []SubReport   `json:"reports,omitempty"`
	Segmentation *Segmentation `json:"segmentation,omitempty"`
}

// SubReport is one interview account. Every field is optional.
type SubReport struct {
	InterviewCity        string     `json:"interview_city,omitempty"`
	InterviewDate        string     `json:"interview_date,omitempty"`
	Examiner             *Examiner  `json:"examiner,omitempty"`
	Outcome              string     `json:"outcome,omitempty"`
	DurationMinutes      *float64   `json:"duration_minutes,omitempty"`
	Questions            *Questions `json:"questions,omitempty"`
	Documents            *Documents `json:"documents,omitempty"`
	Candidate            *Candidate `json:"candidate,omitempty"`
	QueueAndProcessNotes string     `json:"queue_and_process_notes,omitempty"`
	NextSteps            *NextSteps `json:"next_steps,omitempty"`
	TipsAndNotes         string     `json:"tips_and_notes,omitempty"`
	Confidence           *float64   `json:"confidence,omitempty"`
}

// Examiner identifies who ran the interview.
type Examiner struct {
	Name  string `json:"name,omitempty"`
	Label string `json:"label,omitempty"`
}

// Questions lists what was asked during the interview.
type Questions struct {
	RawList         []string `json:"raw_list,omitempty"`
	CanonicalTopics []string `json:"canonical_topics,omitempty"`
}

// Documents lists documents mentioned in the account.
type Documents struct {
	Mentioned []string `json:"mentioned,omitempty"`
}

// Candidate describes the person who was interviewed.
type Candidate struct {
	Who         string `json:"who,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Age         string `json:"age,omitempty"`
	PolishStudy string `json:"polish_study,omitempty"`
}

// NextSteps records what happens after the interview.
type NextSteps struct {
	DecisionOrPickupDate string `json:"decision_or_pickup_date,omitempty"`
	PromisedAction       string `json:"promised_action,omitempty"`
}

// Segmentation splits the original text into labelled excerpts.
type Segmentation struct {
	Segments []Segment `json:"segments"`
}

// Segment is one labelled excerpt.
type Segment struct {
	Label       string `json:"label"`
	TextExcerpt string `json:"text_excerpt,omitempty"`
}

// RawQuestions returns the non-empty raw question lists of all sub-reports,
// concatenated in document order.
func (a *Analysis) RawQuestions() []string {
	if a == nil {
		return nil
	}

	var questions []string
	for _, report := range a.Reports {
		if report.Questions == nil || len(report.Questions.RawList) == 0 {
			continue
		}
		questions = append(questions, report.Questions.RawList...)
	}

	return questions
}

// HasInterviewInfo reports whether the interview-info block has anything to show.
func (r *SubReport) HasInterviewInfo() bool {
	return r.InterviewCity != "" || r.InterviewDate != "" || r.Examiner != nil
}

// HasNextSteps reports whether any next-step field is populated.
func (r *SubReport) HasNextSteps() bool {
	return r.NextSteps != nil && (r.NextSteps.DecisionOrPickupDate != "" || r.NextSteps.PromisedAction != "")
}
