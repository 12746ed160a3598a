package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/foretell/internal/model"
)

// Asker answers one free-form question
type Asker interface {
	Ask(ctx context.Context, question string) (*model.Report, error)
}

// QuestionJob runs a single question
type QuestionJob struct {
	Index    int
	Question string
	Asker    Asker
}

// Execute asks the question
func (j *QuestionJob) Execute(ctx context.Context) Result {
	report, err := j.Asker.Ask(ctx, j.Question)
	return &Answer{
		Index:    j.Index,
		Question: j.Question,
		Report:   report,
		Error:    err,
	}
}

// Answer is the outcome of one question in a batch
type Answer struct {
	Index    int
	Question string
	Report   *model.Report
	Error    error
}

// Err returns the error from asking the question
func (a *Answer) Err() error {
	return a.Error
}

// BatchProcessor answers many questions concurrently
type BatchProcessor struct {
	asker       Asker
	concurrency int

	// OnDone, when set, is called from the collecting goroutine as each answer arrives
	OnDone func(*Answer)
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(asker Asker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		asker:       asker,
		concurrency: concurrency,
	}
}

// ProcessQuestions answers questions and returns them in input order
func (b *BatchProcessor) ProcessQuestions(ctx context.Context, questions []string) []*Answer {
	if len(questions) == 0 {
		return []*Answer{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, q := range questions {
			if !pool.Submit(&QuestionJob{Index: i, Question: q, Asker: b.asker}) {
				break
			}
		}
		pool.Close()
	}()

	answers := make([]*Answer, 0, len(questions))
	for r := range pool.Results() {
		a := r.(*Answer)
		if b.OnDone != nil {
			b.OnDone(a)
		}
		answers = append(answers, a)
	}

	sort.Slice(answers, func(i, j int) bool { return answers[i].Index < answers[j].Index })
	return answers
}

// ProcessFile reads questions from a file and answers them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*Answer, error) {
	questions, err := ReadQuestionsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	return b.ProcessQuestions(ctx, questions), nil
}

// ReadQuestionsFromFile reads one question per line, skipping blank
// lines, # comments and repeats
func ReadQuestionsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var questions []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := strings.ToLower(line)
		if !seen[key] {
			seen[key] = true
			questions = append(questions, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return questions, nil
}
