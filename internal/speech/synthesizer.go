package speech

import (
	"context"
	"strings"
	"sync"
)

type Voice struct {
	Uri     string
	Name    string
	Lang    string
	Default bool
}

type Utterance struct {
	Text     string
	Rate     float64
	Pitch    float64
	VoiceUri string
}

type UtteranceEvents struct {
	OnStart func()
	OnEnd   func()
	OnError func(err error)
}

// SynthesisEngine abstracts the local platform synthesizer. The voice list
// loads asynchronously and may be empty on first query; OnVoicesChanged fires
// once it becomes available.
type SynthesisEngine interface {
	Speak(u Utterance, events UtteranceEvents) error
	Cancel()
	Voices() []Voice
	OnVoicesChanged(fn func())
}

type PlaybackEvents struct {
	OnPlay  func()
	OnEnded func()
	OnError func(err error)
}

// AudioPlayer plays a rendered clip fetched from the hosted synthesis
// endpoint.
type AudioPlayer interface {
	Play(clip []byte, events PlaybackEvents) error
	Stop()
}

// ClipFetcher renders text to audio bytes via the hosted endpoint.
type ClipFetcher interface {
	Fetch(ctx context.Context, text, voice, model string) ([]byte, error)
}

type SynthesizerOptions struct {
	Rate        float64
	Pitch       float64
	VoiceUri    string
	UseHosted   bool
	HostedVoice string
	HostedModel string
}

// Synthesizer speaks text through either the local platform engine or the
// hosted endpoint, toggling a single speaking flag from whichever path is
// active. Stop cancels both paths so two audio sources can never overlap
// after a rapid preference toggle.
type Synthesizer struct {
	mu         sync.Mutex
	engine     SynthesisEngine
	player     AudioPlayer
	fetcher    ClipFetcher
	opts       SynthesizerOptions
	generation uint64
	speaking   bool
	voice      *Voice
	pendingUri string
}

func NewSynthesizer(engine SynthesisEngine, player AudioPlayer, fetcher ClipFetcher, opts SynthesizerOptions) *Synthesizer {
	if opts.Rate == 0 {
		opts.Rate = 1
	}
	if opts.Pitch == 0 {
		opts.Pitch = 1
	}

	s := &Synthesizer{
		engine:  engine,
		player:  player,
		fetcher: fetcher,
		opts:    opts,
	}

	if len(opts.VoiceUri) != 0 {
		s.pendingUri = opts.VoiceUri
	}

	if engine != nil {
		// the platform voice list may not be loaded yet; re-resolve a
		// previously chosen voice once it is
		engine.OnVoicesChanged(s.resolvePendingVoice)
		s.resolvePendingVoice()
	}

	return s
}

func (s *Synthesizer) resolvePendingVoice() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pendingUri) == 0 {
		return
	}

	for _, v := range s.engine.Voices() {
		if v.Uri == s.pendingUri {
			voice := v
			s.voice = &voice
			s.pendingUri = ""
			return
		}
	}
}

// Speak cancels anything in flight and voices the text through the selected
// path.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	s.stop()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	opts := s.opts
	voice := s.voice
	s.mu.Unlock()

	if opts.UseHosted {
		return s.speakHosted(ctx, gen, text, opts)
	}

	u := Utterance{
		Text:  text,
		Rate:  opts.Rate,
		Pitch: opts.Pitch,
	}
	if voice != nil {
		u.VoiceUri = voice.Uri
	}

	return s.engine.Speak(u, UtteranceEvents{
		OnStart: func() { s.setSpeaking(gen, true) },
		OnEnd:   func() { s.setSpeaking(gen, false) },
		OnError: func(err error) { s.setSpeaking(gen, false) },
	})
}

func (s *Synthesizer) speakHosted(ctx context.Context, gen uint64, text string, opts SynthesizerOptions) error {
	clip, err := s.fetcher.Fetch(ctx, text, opts.HostedVoice, opts.HostedModel)
	if err != nil {
		return err
	}

	s.mu.Lock()
	stale := gen != s.generation
	s.mu.Unlock()
	if stale {
		// stopped while the clip was being rendered
		return nil
	}

	return s.player.Play(clip, PlaybackEvents{
		OnPlay:  func() { s.setSpeaking(gen, true) },
		OnEnded: func() { s.setSpeaking(gen, false) },
		OnError: func(err error) { s.setSpeaking(gen, false) },
	})
}

func (s *Synthesizer) setSpeaking(gen uint64, speaking bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}

	s.speaking = speaking
}

// Stop cancels both the local and the hosted playback path. It is safe to
// call when nothing is active.
func (s *Synthesizer) Stop() {
	s.stop()
}

func (s *Synthesizer) stop() {
	s.mu.Lock()
	s.generation++
	s.speaking = false
	s.mu.Unlock()

	if s.engine != nil {
		s.engine.Cancel()
	}
	if s.player != nil {
		s.player.Stop()
	}
}

func (s *Synthesizer) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.speaking
}

// SetVoiceUri selects a local voice by its stable identifier. If the voice
// list has not loaded yet the selection is kept pending and re-resolved when
// it does.
func (s *Synthesizer) SetVoiceUri(uri string) {
	s.mu.Lock()
	s.voice = nil
	s.pendingUri = uri
	s.opts.VoiceUri = uri
	s.mu.Unlock()

	s.resolvePendingVoice()
}

func (s *Synthesizer) Voice() *Voice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.voice == nil {
		return nil
	}

	copied := *s.voice
	return &copied
}

func (s *Synthesizer) SetOptions(opts SynthesizerOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if opts.Rate != 0 {
		s.opts.Rate = opts.Rate
	}
	if opts.Pitch != 0 {
		s.opts.Pitch = opts.Pitch
	}
	s.opts.UseHosted = opts.UseHosted
	if len(opts.HostedVoice) != 0 {
		s.opts.HostedVoice = opts.HostedVoice
	}
	if len(opts.HostedModel) != 0 {
		s.opts.HostedModel = opts.HostedModel
	}
}

// FindBestVoice picks a voice by language prefix and, when provided, a
// case-insensitive name fragment. It falls back to the platform default.
func FindBestVoice(voices []Voice, language, name string) *Voice {
	if len(voices) == 0 {
		return nil
	}

	if len(language) != 0 && len(name) != 0 {
		for _, v := range voices {
			if strings.HasPrefix(v.Lang, language) && strings.Contains(strings.ToLower(v.Name), strings.ToLower(name)) {
				voice := v
				return &voice
			}
		}
	}

	if len(language) != 0 {
		for _, v := range voices {
			if strings.HasPrefix(v.Lang, language) {
				voice := v
				return &voice
			}
		}
	}

	for _, v := range voices {
		if v.Default {
			voice := v
			return &voice
		}
	}

	voice := voices[0]
	return &voice
}
