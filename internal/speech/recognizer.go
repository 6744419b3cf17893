package speech

import (
	"strings"
	"sync"
)

type RecognitionConfig struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// RecognitionResult is one decoded utterance fragment. Final fragments are
// committed; non-final fragments only update the live transcript.
type RecognitionResult struct {
	Transcript string
	Final      bool
}

// RecognitionEvents are delivered asynchronously by the platform, in
// recognition order. The platform may fire OnEnd on its own, e.g. after a
// silence timeout.
type RecognitionEvents struct {
	OnStart  func()
	OnResult func(results []RecognitionResult)
	OnEnd    func()
	OnError  func(err error)
}

type RecognitionSession interface {
	Stop()
}

// RecognitionEngine abstracts the platform speech-to-text service.
type RecognitionEngine interface {
	Start(cfg RecognitionConfig, events RecognitionEvents) (RecognitionSession, error)
}

// Recognizer drives one recognition session at a time. Interim results land
// in the live transcript, finalized utterances accumulate in the final
// transcript, and the live transcript is left fresh for the next utterance.
// Callbacks from a superseded session are discarded via a generation counter
// so that a cancelled session can never flip state back to listening.
type Recognizer struct {
	mu         sync.Mutex
	engine     RecognitionEngine
	cfg        RecognitionConfig
	session    RecognitionSession
	generation uint64

	listening       bool
	transcript      string
	finalTranscript string
	lastErr         error
}

func NewRecognizer(engine RecognitionEngine, cfg RecognitionConfig) *Recognizer {
	if len(cfg.Language) == 0 {
		cfg.Language = "en-US"
	}

	return &Recognizer{
		engine: engine,
		cfg:    cfg,
	}
}

// Start clears prior transcript state and opens a new session. Starting while
// already listening restarts the session.
func (r *Recognizer) Start() error {
	r.mu.Lock()

	if r.session != nil {
		r.session.Stop()
		r.session = nil
	}

	r.generation++
	gen := r.generation
	r.transcript = ""
	r.finalTranscript = ""
	r.lastErr = nil
	cfg := r.cfg
	r.mu.Unlock()

	session, err := r.engine.Start(cfg, RecognitionEvents{
		OnStart: func() {
			r.withGeneration(gen, func() {
				r.listening = true
				r.lastErr = nil
			})
		},
		OnResult: func(results []RecognitionResult) {
			r.withGeneration(gen, func() {
				interim := []string{}
				final := []string{}
				for _, result := range results {
					if result.Final {
						final = append(final, result.Transcript)
						continue
					}
					interim = append(interim, result.Transcript)
				}

				r.transcript = strings.Join(interim, "")
				if len(final) != 0 {
					r.finalTranscript = strings.TrimSpace(r.finalTranscript + strings.Join(final, ""))
					r.transcript = ""
				}
			})
		},
		OnEnd: func() {
			// the platform may end the session spontaneously
			r.withGeneration(gen, func() {
				r.listening = false
				r.session = nil
			})
		},
		OnError: func(err error) {
			r.withGeneration(gen, func() {
				r.lastErr = err
				r.listening = false
			})
		},
	})

	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen == r.generation {
		r.session = session
		r.listening = true
	} else {
		session.Stop()
	}

	return nil
}

// Stop ends the active session. Calling it with nothing active is a no-op,
// and callbacks from the stopped session are ignored afterwards.
func (r *Recognizer) Stop() {
	r.mu.Lock()
	session := r.session
	r.session = nil
	r.listening = false
	r.generation++
	r.mu.Unlock()

	if session != nil {
		session.Stop()
	}
}

func (r *Recognizer) withGeneration(gen uint64, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		return
	}

	fn()
}

func (r *Recognizer) IsListening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.listening
}

// Transcript returns the volatile live transcript of the current utterance.
func (r *Recognizer) Transcript() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.transcript
}

// FinalTranscript returns the accumulated finalized utterances.
func (r *Recognizer) FinalTranscript() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.finalTranscript
}

func (r *Recognizer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.lastErr
}

func (r *Recognizer) ClearTranscripts() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transcript = ""
	r.finalTranscript = ""
}

// SetLanguage applies to the next started session.
func (r *Recognizer) SetLanguage(language string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg.Language = language
}
