package tutor

// System turn texts, in the learner's native language.
const (
	msgOpening             = "Уровень: %s | Голос: %s"
	msgBackendUnavailable  = "❌ Ошибка соединения с AI. Проверьте подключение и попробуйте снова."
	msgNoSpeech            = "🎤 Речь не распознана. Попробуйте еще раз."
	msgRecognitionDisabled = "⚠️ Распознавание речи недоступно. Проверьте микрофон и ключ DEEPGRAM_API_KEY."
)
