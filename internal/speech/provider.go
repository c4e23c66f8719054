package speech

import "context"

// Fragment представляет один результат распознавания
type Fragment struct {
	Text  string
	Final bool
}

// RecognitionEvent повторяет модель браузерного распознавателя:
// Results содержит все слоты текущего захвата, ResultIndex указывает
// на первый слот, который еще мог измениться.
type RecognitionEvent struct {
	ResultIndex int
	Results     []Fragment
}

// RecognitionHandler набор колбэков распознавателя. Любое поле может быть nil.
type RecognitionHandler struct {
	OnStart  func()
	OnResult func(RecognitionEvent)
	OnError  func(ErrorCode)
	OnEnd    func()
}

// Recognizer потоковый распознаватель речи
type Recognizer interface {
	IsSupported() bool
	// SetHandler подключает колбэки; nil отключает их
	SetHandler(h *RecognitionHandler)
	Start() error
	Stop() error
}

// SynthesisHandler колбэки синтезатора
type SynthesisHandler struct {
	OnStart func()
	OnEnd   func()
	OnError func(error)
}

// Synthesizer озвучивает текст
type Synthesizer interface {
	IsSupported() bool
	Speak(text string, h SynthesisHandler) error
	Cancel() error
}

// MediaRequest описывает запрашиваемые устройства
type MediaRequest struct {
	Audio bool
	Video bool
}

// MediaStream открытый поток устройства; Stop освобождает устройство
type MediaStream interface {
	Stop() error
}

// MediaDevices доступ к камере и микрофону
type MediaDevices interface {
	IsSupported() bool
	Open(ctx context.Context, req MediaRequest) (MediaStream, error)
}
