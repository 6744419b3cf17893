package speech

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	stopped int
}

func (s *fakeSession) Stop() {
	s.stopped++
}

type fakeRecognitionEngine struct {
	startErr error
	sessions []*fakeSession
	events   []RecognitionEvents
	lastCfg  RecognitionConfig
}

func (e *fakeRecognitionEngine) Start(cfg RecognitionConfig, events RecognitionEvents) (RecognitionSession, error) {
	if e.startErr != nil {
		return nil, e.startErr
	}

	e.lastCfg = cfg
	session := &fakeSession{}
	e.sessions = append(e.sessions, session)
	e.events = append(e.events, events)
	return session, nil
}

func (e *fakeRecognitionEngine) last() RecognitionEvents {
	return e.events[len(e.events)-1]
}

func TestRecognizerStart(t *testing.T) {
	engine := &fakeRecognitionEngine{}
	r := NewRecognizer(engine, RecognitionConfig{Continuous: true, InterimResults: true})

	require.Nil(t, r.Start())

	assert.True(t, r.IsListening())
	assert.Equal(t, "en-US", engine.lastCfg.Language)
	assert.True(t, engine.lastCfg.Continuous)
}

func TestRecognizerStart_ClearsPriorTranscripts(t *testing.T) {
	engine := &fakeRecognitionEngine{}
	r := NewRecognizer(engine, RecognitionConfig{})

	require.Nil(t, r.Start())
	engine.last().OnResult([]RecognitionResult{{Transcript: "hello there", Final: true}})
	require.Equal(t, "hello there", r.FinalTranscript())

	require.Nil(t, r.Start())
	assert.Empty(t, r.Transcript())
	assert.Empty(t, r.FinalTranscript())
}

func TestRecognizerStart_RestartsActiveSession(t *testing.T) {
	engine := &fakeRecognitionEngine{}
	r := NewRecognizer(engine, RecognitionConfig{})

	require.Nil(t, r.Start())
	require.Nil(t, r.Start())

	require.Len(t, engine.sessions, 2)
	assert.Equal(t, 1, engine.sessions[0].stopped)
	assert.Equal(t, 0, engine.sessions[1].stopped)
	assert.True(t, r.IsListening())
}

func TestRecognizerStart_EngineError(t *testing.T) {
	engine := &fakeRecognitionEngine{startErr: errors.New("microphone unavailable")}
	r := NewRecognizer(engine, RecognitionConfig{})

	err := r.Start()
	require.NotNil(t, err)
	assert.False(t, r.IsListening())
}

func TestRecognizerResults_InterimAndFinal(t *testing.T) {
	engine := &fakeRecognitionEngine{}
	r := NewRecognizer(engine, RecognitionConfig{InterimResults: true})
	require.Nil(t, r.Start())

	events := engine.last()

	events.OnResult([]RecognitionResult{{Transcript: "hel"}})
	assert.Equal(t, "hel", r.Transcript())
	assert.Empty(t, r.FinalTranscript())

	events.OnResult([]RecognitionResult{{Transcript: "hello wor"}})
	assert.Equal(t, "hello wor", r.Transcript())

	events.OnResult([]RecognitionResult{{Transcript: "hello world ", Final: true}})
	assert.Empty(t, r.Transcript())
	assert.Equal(t, "hello world", r.FinalTranscript())

	// the next utterance accumulates onto the committed transcript
	events.OnResult([]RecognitionResult{{Transcript: "how"}})
	assert.Equal(t, "how", r.Transcript())
	assert.Equal(t, "hello world", r.FinalTranscript())

	events.OnResult([]RecognitionResult{{Transcript: "how are you", Final: true}})
	assert.Empty(t, r.Transcript())
	assert.Equal(t, "hello worldhow are you", r.FinalTranscript())
}

func TestRecognizerResults_MixedBatch(t *testing.T) {
	engine := &fakeRecognitionEngine{}
	r := NewRecognizer(engine, RecognitionConfig{})
	require.Nil(t, r.Start())

	engine.last().OnResult([]RecognitionResult{
		{Transcript: "first ", Final: true},
		{Transcript: "sec"},
	})

	assert.Equal(t, "first", r.FinalTranscript())
	assert.Empty(t, r.Transcript())
}

func TestRecognizerSpontaneousEnd(t *testing.T) {
	engine := &fakeRecognitionEngine{}
	r := NewRecognizer(engine, RecognitionConfig{})
	require.Nil(t, r.Start())

	engine.last().OnResult([]RecognitionResult{{Transcript: "kept", Final: true}})
	engine.last().OnEnd()

	assert.False(t, r.IsListening())
	assert.Equal(t, "kept", r.FinalTranscript())
}

func TestRecognizerStop(t *testing.T) {
	engine := &fakeRecognitionEngine{}
	r := NewRecognizer(engine, RecognitionConfig{})
	require.Nil(t, r.Start())

	session := engine.sessions[0]
	r.Stop()

	assert.False(t, r.IsListening())
	assert.Equal(t, 1, session.stopped)

	// idempotent
	r.Stop()
	assert.Equal(t, 1, session.stopped)
}

func TestRecognizerStop_DiscardsStaleCallbacks(t *testing.T) {
	engine := &fakeRecognitionEngine{}
	r := NewRecognizer(engine, RecognitionConfig{})
	require.Nil(t, r.Start())

	stale := engine.last()
	r.Stop()

	// callbacks from the stopped session can not flip state back
	stale.OnStart()
	assert.False(t, r.IsListening())

	stale.OnResult([]RecognitionResult{{Transcript: "late", Final: true}})
	assert.Empty(t, r.FinalTranscript())

	stale.OnError(errors.New("aborted"))
	assert.Nil(t, r.Err())
}

func TestRecognizerRestart_DiscardsPreviousSessionCallbacks(t *testing.T) {
	engine := &fakeRecognitionEngine{}
	r := NewRecognizer(engine, RecognitionConfig{})

	require.Nil(t, r.Start())
	first := engine.last()

	require.Nil(t, r.Start())
	second := engine.last()

	first.OnResult([]RecognitionResult{{Transcript: "stale", Final: true}})
	assert.Empty(t, r.FinalTranscript())

	second.OnResult([]RecognitionResult{{Transcript: "fresh", Final: true}})
	assert.Equal(t, "fresh", r.FinalTranscript())
}

func TestRecognizerOnError(t *testing.T) {
	engine := &fakeRecognitionEngine{}
	r := NewRecognizer(engine, RecognitionConfig{})
	require.Nil(t, r.Start())

	engine.last().OnError(errors.New("no-speech"))

	assert.False(t, r.IsListening())
	require.NotNil(t, r.Err())
	assert.Equal(t, "no-speech", r.Err().Error())

	// a fresh start clears the recorded error
	require.Nil(t, r.Start())
	assert.Nil(t, r.Err())
}

func TestRecognizerSetLanguage_AppliesToNextSession(t *testing.T) {
	engine := &fakeRecognitionEngine{}
	r := NewRecognizer(engine, RecognitionConfig{})

	require.Nil(t, r.Start())
	assert.Equal(t, "en-US", engine.lastCfg.Language)

	r.SetLanguage("fr-FR")
	assert.Equal(t, "en-US", engine.lastCfg.Language)

	require.Nil(t, r.Start())
	assert.Equal(t, "fr-FR", engine.lastCfg.Language)
}

func TestRecognizerClearTranscripts(t *testing.T) {
	engine := &fakeRecognitionEngine{}
	r := NewRecognizer(engine, RecognitionConfig{})
	require.Nil(t, r.Start())

	engine.last().OnResult([]RecognitionResult{{Transcript: "done", Final: true}})
	engine.last().OnResult([]RecognitionResult{{Transcript: "live"}})

	r.ClearTranscripts()

	assert.Empty(t, r.Transcript())
	assert.Empty(t, r.FinalTranscript())
	assert.True(t, r.IsListening())
}
