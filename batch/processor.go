package batch

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/majiddarvishan/wellformed/bracket"
	"github.com/majiddarvishan/wellformed/internal/errors"
	"github.com/majiddarvishan/wellformed/workerpool"
)

// Result is the verdict for one input string. Index is the 1-based position
// of the string across all batches.
type Result struct {
	Index      int
	Batch      int
	Line       string
	WellFormed bool
}

type pending struct {
	index  int
	batch  int
	line   string
	future *workerpool.Future[bool]
}

// Processor validates lines on a worker pool.
type Processor struct {
	pool *workerpool.ThreadPool
	log  logrus.FieldLogger
}

// NewProcessor returns a Processor submitting to pool. log may be nil.
func NewProcessor(pool *workerpool.ThreadPool, log logrus.FieldLogger) *Processor {
	if log == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		log = logger
	}

	return &Processor{pool: pool, log: log}
}

// Process validates every line of batches and returns the results in input
// order.
func (p *Processor) Process(batches []Batch) ([]Result, error) {
	var queued []pending

	for _, b := range batches {
		var err error
		if queued, err = p.submit(queued, b); err != nil {
			return nil, err
		}
	}

	return p.collect(queued, nil)
}

// Run reads batches from in, submitting each line as soon as it is read, and
// writes the results to out in input order once the input is exhausted.
// Nothing is written if the input is malformed.
func (p *Processor) Run(in *Reader, out *Writer) error {
	var queued []pending

	for {
		b, err := in.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if queued, err = p.submit(queued, b); err != nil {
			return err
		}
	}

	p.log.WithField("lines", len(queued)).Debug("All lines submitted")

	if _, err := p.collect(queued, out); err != nil {
		return err
	}

	return out.Flush()
}

func (p *Processor) submit(queued []pending, b Batch) ([]pending, error) {
	for _, line := range b.Lines {
		f, err := workerpool.SubmitValue(p.pool, func() bool {
			return bracket.IsWellFormed(line)
		})
		if err != nil {
			return nil, err
		}

		queued = append(queued, pending{
			index:  len(queued) + 1,
			batch:  b.Number,
			line:   line,
			future: f,
		})
	}

	return queued, nil
}

// collect waits for every future in submission order. When out is not nil
// each result is written as soon as it is available.
func (p *Processor) collect(queued []pending, out *Writer) ([]Result, error) {
	results := make([]Result, 0, len(queued))

	for _, q := range queued {
		ok, err := q.future.Get()
		if err != nil {
			return nil, errors.Errorf("string %d: %w", q.index, err)
		}

		res := Result{Index: q.index, Batch: q.batch, Line: q.line, WellFormed: ok}
		if out != nil {
			if err := out.Write(res); err != nil {
				return nil, err
			}
		}

		results = append(results, res)
	}

	return results, nil
}
