// Package messages holds the operator-facing strings shown by the console in Russian and Uzbek.
package messages

import "github.com/angelmondragon/bazary-backend/pkg/enums"

type Key string

const (
	StatusOptimizing        Key = "status.optimizing"
	StatusAnalyzing         Key = "status.analyzing"
	StatusEnhancing         Key = "status.enhancing"
	StatusGeneratingVideo   Key = "status.generating_video"
	StatusSynthesizingVoice Key = "status.synthesizing_voice"
	StatusReady             Key = "status.ready"
	StatusFailed            Key = "status.failed"

	AnalyzeFailed   Key = "error.analyze_failed"
	ResearchFailed  Key = "error.research_failed"
	ChatNotFound    Key = "error.chat_not_found"
	NoAdminRights   Key = "error.no_admin_rights"
	UnknownAPIError Key = "error.unknown_api"
	NetworkError    Key = "error.network"
	MissingAIKey    Key = "error.missing_ai_key"
	VideoDisabled   Key = "error.video_disabled"
)

var catalog = map[enums.Language]map[Key]string{
	enums.LanguageRussian: {
		StatusOptimizing:        "Оптимизация данных фото...",
		StatusAnalyzing:         "ИИ распознает товары и пишет текст...",
		StatusEnhancing:         "Улучшение кадра...",
		StatusGeneratingVideo:   "Генерация видео...",
		StatusSynthesizingVoice: "Озвучка текста...",
		StatusReady:             "Готово",
		StatusFailed:            "Не удалось выполнить действие",
		AnalyzeFailed:           "Ошибка обработки изображений.",
		ResearchFailed:          "Произошла ошибка при анализе рынка.",
		ChatNotFound:            "Канал не найден. Убедитесь, что бот добавлен в Администраторы канала и ID введен верно.",
		NoAdminRights:           "У бота нет прав для публикации. Сделайте его администратором.",
		UnknownAPIError:         "Unknown API Error",
		NetworkError:            "Network Error",
		MissingAIKey:            "Server is missing API_KEY (or GEMINI_API_KEY) env var",
		VideoDisabled:           "Video generation is not enabled on the server (Veo access required).",
	},
	enums.LanguageUzbek: {
		StatusOptimizing:        "Rasm ma'lumotlari optimallashmoqda...",
		StatusAnalyzing:         "AI mahsulotni aniqlab, matn yozmoqda...",
		StatusEnhancing:         "Tasvir yaxshilanmoqda...",
		StatusGeneratingVideo:   "Video yaratilmoqda...",
		StatusSynthesizingVoice: "Matn ovozlashtirilmoqda...",
		StatusReady:             "Tayyor",
		StatusFailed:            "Amalni bajarib bo'lmadi",
		AnalyzeFailed:           "Rasmlarni qayta ishlashda xatolik.",
		ResearchFailed:          "Bozor tahlili vaqtida xatolik yuz berdi.",
		ChatNotFound:            "Kanal topilmadi. Bot kanal administratorlariga qo'shilganini va ID to'g'ri kiritilganini tekshiring.",
		NoAdminRights:           "Botda nashr qilish huquqi yo'q. Uni administrator qiling.",
	},
}

// Text returns the string for lang, falling back to Russian and then to the key itself.
func Text(lang enums.Language, key Key) string {
	if value, ok := catalog[lang][key]; ok {
		return value
	}
	if value, ok := catalog[enums.DefaultLanguage][key]; ok {
		return value
	}
	return string(key)
}
