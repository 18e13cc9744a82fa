package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"boltalka-bot/internal/crocodile"
)

const (
	callbackHint   = "croc_hint"
	callbackVerify = "verify_"

	wordPreviewLen = 30
	// Bot API caps a message at 4096 characters.
	maxMessageRunes = 4000
)

const msgStart = `Привет, меня зовут <b>Болталка</b> — чат-бот, создающий настроение в любом чате!

Добавь меня в чат с друзьями или коллегами, и я начну вас развлекать :)

<b>Что я умею:</b>
1. 🎮 Играть в Крокодила
2. 👋 Приветствовать новичков и ставить карму
3. 🏆 Показывать топы и рейтинги

/help — все команды`

const msgHelp = `📚 <b>Справка по командам</b>

🎮 <b>Крокодил:</b>
• <b>/crocodile</b> — начать игру (с кнопкой подсказки!)
• <b>/words</b> — список всех доступных слов
• <b>/addword слово | описание</b> — добавить слово (только админы)
• <b>/croctop</b> — топ-10 игроков в этом чате

🏆 <b>Карма:</b>
• <b>+</b> — поставь плюсик (ответом на сообщение)
• <b>/karma</b> — узнать свою карму
• <b>/top</b> — топ-10 пользователей чата

В Крокодиле я даю подсказки и сам завершаю игру через 5 минут ⏰`

const (
	msgAlreadyActive   = "В чате уже идёт игра! 🎮"
	msgStoreFailure    = "⚠️ Не получилось проверить состояние игры. Попробуй ещё раз чуть позже."
	msgAdminsOnly      = "❌ Только администраторы могут добавлять слова"
	msgAddWordUsage    = "❌ Формат: /addword слово | описание\nНапример: /addword айсберг | огромная ледяная глыба, плавающая в океане"
	msgWordsEmpty      = "📭 Список слов пока пуст. Добавь через /addword"
	msgCrocTopEmpty    = "📊 В этом чате ещё нет статистики игр в Крокодила.\nСыграйте первую игру: /crocodile"
	msgKarmaTopEmpty   = "Пока нет статистики в этом чате 🥺"
	msgGameOver        = "Игра уже закончилась!"
	msgNoClue          = "У этого слова нет подсказки 😅"
	msgNotYourButton   = "Это не твоя кнопка!"
	msgBotJoined       = "Всем привет! Я ваш новый развлекательный бот 🤖\nНапишите /help для списка команд"
	buttonHint         = "🔍 Подсказка"
	buttonVerify       = "✅ Я человек"
	playerFallbackName = "Игрок"
	userFallbackName   = "Пользователь"
)

var hintText = map[crocodile.HintLevel]string{
	crocodile.HintVeryHot:    "🔥 Очень горячо! Ты очень близко!",
	crocodile.HintWarm:       "🌡️ Тепло! Есть совпадения",
	crocodile.HintCold:       "❄️ Холодно. Совсем не то",
	crocodile.HintNearLength: "🌊 Тёпленько! Почти та же длина",
	crocodile.HintShorter:    "⬆️ Слово короче загаданного",
	crocodile.HintLonger:     "⬇️ Слово длиннее загаданного",
}

func esc(s string) string { return html.EscapeString(s) }

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func gameStartedText(length int) string {
	return fmt.Sprintf("🎮 <b>Крокодил!</b>\n"+
		"Я загадал слово. Твоя задача — объяснить его другим участникам, не называя само слово.\n\n"+
		"<i>Слово из %d букв</i>\n\n"+
		"Если совсем сложно — нажми кнопку подсказки 👇", length)
}

// TimeoutText is the message a chat gets when nobody guessed in time.
func TimeoutText(word string) string {
	return fmt.Sprintf("⏰ Время вышло! Никто не угадал слово <b>%s</b>.\nМожете начать новую игру: /crocodile", esc(word))
}

func correctGuessText(name, word, description string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Поздравляю, %s! Ты угадал слово <b>%s</b>!\n\n", esc(name), esc(word))
	if description != "" {
		fmt.Fprintf(&b, "📖 <b>Значение:</b> %s\n\n", esc(description))
	}
	fmt.Fprintf(&b, "⭐ +%d к карме за победу!", crocodile.KarmaPerWin)
	return b.String()
}

func hintMessage(level crocodile.HintLevel) string {
	return "🤔 " + hintText[level]
}

func clueText(description string) string {
	if description == "" {
		description = msgNoClue
	}
	return "🔍 <b>Подсказка:</b> " + esc(description)
}

func lengthErrorText(err *crocodile.LengthError) string {
	if err.Field == "description" {
		return fmt.Sprintf("❌ Описание слишком короткое (минимум %d символов)", err.Min)
	}
	if err.Len < err.Min {
		return fmt.Sprintf("❌ Слово должно быть длиннее %d букв", err.Min-1)
	}
	return fmt.Sprintf("❌ Слово слишком длинное (максимум %d букв)", err.Max)
}

func wordAddedText(word string) string {
	return fmt.Sprintf("✅ Слово «%s» с описанием добавлено в игру!", esc(word))
}

func wordExistsText(word string) string {
	return fmt.Sprintf("⚠️ Слово «%s» уже есть в списке", esc(crocodile.Normalize(word)))
}

func wordListText(entries []crocodile.Entry) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("• %s — <i>%s</i>", esc(e.Word), esc(truncateRunes(e.Description, wordPreviewLen))))
	}
	header := fmt.Sprintf("📚 <b>Доступные слова (%d шт.):</b>", len(entries))
	return chunkLines(header, lines, maxMessageRunes)
}

func medal(place int) string {
	switch place {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return "▫️"
	}
}

func crocTopLine(place int, name string, p crocodile.PlayerStat) string {
	return fmt.Sprintf("%s %s — %d побед из %d игр (%.1f%%)", medal(place), esc(name), p.Wins, p.Played, p.WinRate())
}

func karmaText(name string, k int64) string {
	return fmt.Sprintf("⭐ Карма %s: <b>%d</b>", esc(name), k)
}

func plusText(name string) string {
	return fmt.Sprintf("⭐ %s получил +1 к карме!", esc(name))
}

func verifyPromptText(name string) string {
	return fmt.Sprintf("👋 Привет, %s!\nНажми кнопку, чтобы подтвердить, что ты человек:", esc(name))
}

func verifiedText(name string) string {
	return fmt.Sprintf("👤 %s подтверждён! Добро пожаловать в чат!", esc(name))
}

// truncateRunes shortens s to n runes, adding an ellipsis when cut.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// chunkLines packs header and lines into messages of at most limit runes.
// A single line longer than limit gets a message of its own.
func chunkLines(header string, lines []string, limit int) []string {
	var (
		out []string
		cur strings.Builder
	)
	cur.WriteString(header)
	size := utf8.RuneCountInString(header)
	for _, l := range lines {
		n := utf8.RuneCountInString(l) + 1
		if size > 0 && size+n > limit {
			out = append(out, cur.String())
			cur.Reset()
			size = 0
		}
		if size > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(l)
		size += n
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
