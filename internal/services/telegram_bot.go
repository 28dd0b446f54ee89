package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// TelegramService — уведомления о домашних заданиях через Bot API.
// При пустом токене или chatID вызовы превращаются в no-op, чтобы
// отключённый бот не ломал основной сценарий.
type TelegramService struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewTelegramService(botToken string) *TelegramService {
	return &TelegramService{
		token:   botToken,
		baseURL: fmt.Sprintf("https://api.telegram.org/bot%s", botToken),
		client:  &http.Client{},
	}
}

type tgResp struct {
	Ok          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (t *TelegramService) SendMessage(chatID int64, text string) error {
	if t == nil || t.token == "" || chatID == 0 {
		log.Printf("[tg][skip] token or chatID empty (token? %v chatID=%d)", t != nil && t.token != "", chatID)
		return nil
	}
	body := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	b, _ := json.Marshal(body)
	url := t.baseURL + "/sendMessage"
	req, _ := http.NewRequest("POST", url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		log.Printf("[tg][send][err] http: %v", err)
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var api tgResp
	_ = json.Unmarshal(respBody, &api)
	if resp.StatusCode != 200 || !api.Ok {
		log.Printf("[tg][send] http_status=%d body=%s", resp.StatusCode, string(respBody))
		return fmt.Errorf("telegram sendMessage failed: status=%d ok=%v desc=%s", resp.StatusCode, api.Ok, api.Description)
	}
	return nil
}

// NotifyHomework — сообщение ученику о новом задании.
func (t *TelegramService) NotifyHomework(chatID int64, teacherName, title string, due string) error {
	text := fmt.Sprintf(
		"<b>Новое домашнее задание</b>\nОт: %s\nТема: %s\nСрок: %s",
		teacherName, title, due,
	)
	return t.SendMessage(chatID, text)
}

func (t *TelegramService) SetWebhook(url string) error {
	if t == nil || t.token == "" || url == "" {
		return nil
	}
	full := t.baseURL + "/setWebhook?url=" + url
	req, _ := http.NewRequest("GET", full, nil)
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	log.Printf("[tg][setWebhook] status=%d body=%s", resp.StatusCode, string(b))
	return nil
}
