package nodes

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Chative-support-router/server/internal/agent/model"
)

// Canned replies used when a branch cannot or should not call the model.
const (
	MsgDecline = "Извините, я могу помочь только с вопросами поддержки клиентов: отслеживание заказов, " +
		"варианты доставки, вопросы по оплате, возвраты и общие вопросы о сервисе. " +
		"Есть ли что-то из этого, с чем я могу помочь?"

	MsgGreeting = "Привет! Я ассистент поддержки клиентов. Могу помочь с заказами, доставкой, платежами и возвратами. " +
		"Что вас интересует?"

	MsgCapabilities = "Я помогаю с:\n• Отслеживанием заказов\n• Вариантами доставки\n• Вопросами по оплате\n" +
		"• Возвратами товаров\n• Общими вопросами поддержки\n\nО чем хотите узнать?"

	MsgThanks = "Пожалуйста! Если возникнут еще вопросы - обращайтесь."

	MsgInteresting = "Могу рассказать о наших сервисах поддержки клиентов! Мы помогаем отслеживать заказы, " +
		"выбирать варианты доставки, решать вопросы с оплатой и оформлять возвраты. Есть конкретные вопросы?"

	MsgRetrievalFailed = "Извините, не могу получить информацию из базы знаний. Попробуйте переформулировать вопрос."

	MsgInsufficientInfo = "К сожалению, в базе знаний нет информации по этому вопросу. " +
		"Попробуйте переформулировать вопрос или уточните, что именно вас интересует."

	MsgServiceUnavailable = "Извините, сервис временно недоступен. Пожалуйста, попробуйте еще раз через несколько минут."

	MsgEmptyQuery = "Не могу обработать запрос без сообщения."

	msgBudgetHeader = "Мне не удалось завершить обработку запроса полностью. Вот что удалось выяснить:"
	msgBudgetNone   = "Попробуйте уточнить запрос, например указать номер заказа."
)

const summaryLineLimit = 300

// summaryKeys are the payload facts a summary line shows, in order.
var summaryKeys = []string{
	"message", "found", "status", "order_id", "tracking_no", "carrier", "eta_date",
	"total_amount", "currency", "amount", "method", "eligible", "reason",
	"return_status", "label_ref", "count",
}

// BudgetSummary renders a best-effort answer from the tool results gathered
// before the agent loop stopped.
func BudgetSummary(results []model.ToolResult) string {
	var b strings.Builder
	b.WriteString(msgBudgetHeader)
	if len(results) == 0 {
		b.WriteString("\n")
		b.WriteString(msgBudgetNone)
		return b.String()
	}
	for _, r := range results {
		b.WriteString("\n• ")
		b.WriteString(r.ToolName)
		b.WriteString(": ")
		if r.Success {
			b.WriteString(truncate(payloadText(r.Payload), summaryLineLimit))
		} else {
			b.WriteString("ошибка: ")
			b.WriteString(truncate(r.Error, summaryLineLimit))
		}
	}
	return b.String()
}

// payloadText lists the key facts of an object payload. Payloads without
// any of summaryKeys fall back to compact JSON.
func payloadText(p any) string {
	switch v := p.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprint(p)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return string(raw)
	}
	if facts := keyFacts(obj); len(facts) > 0 {
		return strings.Join(facts, ", ")
	}
	return string(raw)
}

// keyFacts looks each key up at the top level first, then one level down.
func keyFacts(obj map[string]any) []string {
	nestedKeys := make([]string, 0, len(obj))
	for k := range obj {
		nestedKeys = append(nestedKeys, k)
	}
	sort.Strings(nestedKeys)

	var facts []string
	for _, key := range summaryKeys {
		v, ok := scalarAt(obj, key)
		if !ok {
			for _, nk := range nestedKeys {
				if m, isMap := obj[nk].(map[string]any); isMap {
					if v, ok = scalarAt(m, key); ok {
						break
					}
				}
			}
		}
		if ok {
			facts = append(facts, key+"="+v)
		}
	}
	return facts
}

func scalarAt(m map[string]any, key string) (string, bool) {
	switch v := m[key].(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
