package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yooassist/internal/models"
	"github.com/yoockh/yooassist/internal/providers/external"
)

const displayTime = "Mon Jan 2 at 3:04 PM"

type handlers struct {
	d Deps
}

func notConfigured(service string) string {
	return fmt.Sprintf("⚠️ %s service is not configured.", service)
}

func (h *handlers) calculator(ctx context.Context, job Job) (string, error) {
	expr := job.Arg(ArgExpr)
	if expr == "" {
		expr = ExtractExpression(job.Arg(ArgRaw))
	}
	if expr == "" {
		return "🧮 Sorry, I couldn't understand the math problem.", nil
	}
	v, err := Evaluate(expr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🧮 Calculation: %s = %s", expr, FormatNumber(v)), nil
}

func (h *handlers) notes(ctx context.Context, job Job) (string, error) {
	text := job.Arg(ArgText)
	if text == "" {
		text = extractNote(job.Arg(ArgRaw))
	}
	f := &models.Fact{
		UserID:      job.UserID,
		Type:        models.FactTypeNote,
		Value:       text,
		Source:      "task",
		Confidence:  1,
		DerivedText: text,
		Timestamp:   h.d.Now().UTC(),
	}
	if err := h.d.Notes.Insert(ctx, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("📝 Note saved: '%s'", text), nil
}

func (h *handlers) retrieveNotes(ctx context.Context, job Job) (string, error) {
	notes, err := h.d.Notes.RecentByType(ctx, job.UserID, models.FactTypeNote, 10)
	if err != nil {
		return "", err
	}
	if len(notes) == 0 {
		return "📝 No notes saved yet.", nil
	}
	var sb strings.Builder
	sb.WriteString("📝 Your notes:")
	for _, n := range notes {
		sb.WriteString("\n- ")
		sb.WriteString(n.DerivedText)
	}
	return sb.String(), nil
}

func (h *handlers) reminder(ctx context.Context, job Job) (string, error) {
	if h.d.Reminders == nil {
		return notConfigured("Reminder"), nil
	}
	rec, err := h.d.Reminders.Create(ctx, job.UserID, job.Arg(ArgText), job.Arg(ArgTime))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("⏰ Reminder set: '%s' for %s", rec.Text, rec.ScheduledTime.Local().Format(displayTime)), nil
}

func (h *handlers) retrieveReminders(ctx context.Context, job Job) (string, error) {
	if h.d.Reminders == nil {
		return notConfigured("Reminder"), nil
	}
	list, err := h.d.Reminders.Upcoming(ctx, job.UserID)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "⏰ No reminders set yet.", nil
	}
	var sb strings.Builder
	sb.WriteString("⏰ Your reminders:")
	for _, r := range list {
		fmt.Fprintf(&sb, "\n- %s (%s)", r.Text, r.ScheduledTime.Local().Format(displayTime))
	}
	return sb.String(), nil
}

// reminderTrigger is the delayed job queued by ReminderService.Create.
func (h *handlers) reminderTrigger(ctx context.Context, job Job) (string, error) {
	if h.d.Reminders == nil {
		return "", errors.New("reminder scheduler is not wired")
	}
	fired, err := h.d.Reminders.Trigger(ctx, job.Arg(ArgReminder), "scheduled")
	if err != nil {
		return "", err
	}
	if !fired {
		return "already triggered", nil
	}
	return "triggered", nil
}

func (h *handlers) expense(ctx context.Context, job Job) (string, error) {
	amount, _ := strconv.ParseFloat(job.Arg(ArgAmount), 64)
	desc := job.Arg(ArgDesc)
	if desc == "" {
		desc = DefaultExpenseDesc
	}
	cat := job.Arg(ArgCategory)
	if cat == "" {
		cat = DefaultExpenseCategory
	}

	e := &models.Expense{UserID: job.UserID, Amount: amount, Description: desc, Category: cat, Created: h.d.Now().UTC()}
	if err := h.d.Expenses.Insert(ctx, e); err != nil {
		return "", err
	}
	total, err := h.expenseTotal(ctx, job.UserID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("💰 Added expense: %s - $%.2f. Total expenses: $%.2f", desc, amount, total), nil
}

func (h *handlers) expenseTotal(ctx context.Context, userID string) (float64, error) {
	sums, err := h.d.Expenses.Summary(ctx, userID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, s := range sums {
		total += s.Total
	}
	return total, nil
}

func (h *handlers) retrieveExpenses(ctx context.Context, job Job) (string, error) {
	sums, err := h.d.Expenses.Summary(ctx, job.UserID)
	if err != nil {
		return "", err
	}
	if len(sums) == 0 {
		return "💰 No expenses tracked yet.", nil
	}
	recent, err := h.d.Expenses.Recent(ctx, job.UserID, 10)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var total float64
	sb.WriteString("💰 Your expenses:")
	for _, e := range recent {
		fmt.Fprintf(&sb, "\n- $%.2f: %s (%s)", e.Amount, e.Description, e.Created.Local().Format("01/02 03:04 PM"))
	}
	sb.WriteString("\n\nBy category:")
	for _, s := range sums {
		total += s.Total
		fmt.Fprintf(&sb, "\n- %s: $%.2f (%d)", s.Category, s.Total, s.Count)
	}
	fmt.Fprintf(&sb, "\n\n💵 Total: $%.2f", total)
	return sb.String(), nil
}

func (h *handlers) event(ctx context.Context, job Job) (string, error) {
	name, when := job.Arg(ArgName), job.Arg(ArgTime)
	if name == "" {
		name = DefaultEventName
	}
	e := &models.Event{UserID: job.UserID, Name: name, Time: when, Created: h.d.Now().UTC()}
	if err := h.d.Events.Insert(ctx, e); err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Event '%s' scheduled for %s", name, when), nil
}

func (h *handlers) retrieveEvents(ctx context.Context, job Job) (string, error) {
	events, err := h.d.Events.Recent(ctx, job.UserID, 10)
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "📅 No events scheduled yet.", nil
	}
	var sb strings.Builder
	sb.WriteString("📅 Your events:")
	for _, e := range events {
		fmt.Fprintf(&sb, "\n- %s (%s)", e.Name, e.Time)
	}
	return sb.String(), nil
}

func (h *handlers) weather(ctx context.Context, job Job) (string, error) {
	if h.d.Weather == nil {
		return notConfigured("Weather"), nil
	}
	loc := job.Arg(ArgLocation)
	if loc == "" || loc == DefaultLocation {
		return "🌤️ Which city should I check? Try 'weather in Paris'.", nil
	}
	w, err := h.d.Weather.Current(ctx, loc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🌤️ Weather in %s: %s, %.1f°C (feels like %.1f°C), humidity %d%%, wind %.1f m/s",
		w.Location, w.Description, w.TempC, w.FeelsLikeC, w.Humidity, w.WindSpeed), nil
}

func (h *handlers) news(ctx context.Context, job Job) (string, error) {
	if h.d.News == nil {
		return notConfigured("News"), nil
	}
	topic := job.Arg(ArgTopic)
	items, err := h.d.News.Headlines(ctx, topic, 5)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "📰 No headlines found right now.", nil
	}
	var sb strings.Builder
	if topic != "" {
		fmt.Fprintf(&sb, "📰 Latest news about %s:", topic)
	} else {
		sb.WriteString("📰 Top headlines:")
	}
	for i, it := range items {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, it.Title)
		if it.Source != "" {
			fmt.Fprintf(&sb, " (%s)", it.Source)
		}
	}
	return sb.String(), nil
}

func (h *handlers) search(ctx context.Context, job Job) (string, error) {
	if h.d.Search == nil {
		return notConfigured("Search"), nil
	}
	q := job.Arg(ArgQuery)
	results, err := h.d.Search.Search(ctx, q, 3)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("🔍 No results found for '%s'.", q), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 Results for '%s':", q)
	for i, r := range results {
		fmt.Fprintf(&sb, "\n%d. %s - %s", i+1, r.Title, r.Link)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "\n   %s", strings.TrimSpace(r.Snippet))
		}
	}
	return sb.String(), nil
}

var languageCodes = map[string]string{
	"english": "en", "spanish": "es", "french": "fr", "german": "de", "italian": "it",
	"portuguese": "pt", "hindi": "hi", "japanese": "ja", "korean": "ko", "chinese": "zh",
	"russian": "ru", "arabic": "ar", "dutch": "nl", "turkish": "tr", "indonesian": "id",
}

// LanguageCode maps a language name (or an ISO-639-1 code) to the code the translator expects.
func LanguageCode(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if c, ok := languageCodes[n]; ok {
		return c, true
	}
	for _, c := range languageCodes {
		if c == n {
			return c, true
		}
	}
	return "", false
}

func (h *handlers) translate(ctx context.Context, job Job) (string, error) {
	if h.d.Translate == nil {
		return notConfigured("Translate"), nil
	}
	text, target := job.Arg(ArgText), job.Arg(ArgTarget)
	if target == "" {
		target = DefaultTargetLanguage
	}
	if text == "" {
		return "🌐 Please tell me what to translate, e.g. 'translate hello to Spanish'.", nil
	}
	code, ok := LanguageCode(target)
	if !ok {
		return fmt.Sprintf("🌐 Sorry, I don't know the language '%s'.", target), nil
	}
	tr, err := h.d.Translate.Translate(ctx, text, code)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("🌐 Translation (%s): %s", capitalize(target), tr.Text), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (h *handlers) whatsapp(ctx context.Context, job Job) (string, error) {
	if h.d.Sender == nil || h.d.Delayed == nil {
		return notConfigured("WhatsApp"), nil
	}
	phone, msg := job.Arg(ArgPhone), job.Arg(ArgMessage)
	if !strings.HasPrefix(phone, "+") {
		return "📱 Please include the phone number with its country code, e.g. +14155550123.", nil
	}
	if msg == "" {
		return "📱 What should the message say? Try: send a whatsapp to +14155550123 saying \"on my way\".", nil
	}
	delay, err := strconv.Atoi(job.Arg(ArgDelay))
	if err != nil || delay < 0 {
		delay = DefaultWhatsAppDelay
	}

	now := h.d.Now().UTC()
	t := &models.WhatsAppTask{
		UserID:       job.UserID,
		Phone:        phone,
		Message:      msg,
		DelayMinutes: delay,
		Status:       "scheduled",
		ScheduledFor: now.Add(time.Duration(delay) * time.Minute),
		Created:      now,
	}
	if err := h.d.WhatsApp.Insert(ctx, t); err != nil {
		return "", err
	}

	send := Job{
		Kind:   KindWhatsAppSend,
		UserID: job.UserID,
		Args: map[string]string{
			ArgTaskID:  t.ID.Hex(),
			ArgPhone:   phone,
			ArgMessage: msg,
		},
	}
	if _, err := h.d.Delayed.SubmitAfter(ctx, send, time.Duration(delay)*time.Minute); err != nil {
		_ = h.d.WhatsApp.SetStatus(ctx, t.ID.Hex(), "failed", err.Error())
		return "", err
	}
	return fmt.Sprintf("✅ WhatsApp scheduled to %s in %d minutes", phone, delay), nil
}

func (h *handlers) whatsappSend(ctx context.Context, job Job) (string, error) {
	taskID, phone := job.Arg(ArgTaskID), job.Arg(ArgPhone)
	if h.d.Sender == nil {
		_ = h.d.WhatsApp.SetStatus(ctx, taskID, "failed", "sender not configured")
		return "", errors.New("whatsapp sender is not configured")
	}

	err := h.d.Sender.Send(ctx, phone, job.Arg(ArgMessage))
	status, note := "sent", fmt.Sprintf("✅ WhatsApp sent to %s", phone)
	errMsg := ""
	if err != nil {
		status, errMsg = "failed", err.Error()
		note = fmt.Sprintf("⚠️ Failed to send WhatsApp to %s: %v", phone, err)
	}
	if serr := h.d.WhatsApp.SetStatus(ctx, taskID, status, errMsg); serr != nil {
		h.d.Log.WithError(serr).WithField("task_id", taskID).Warn("whatsapp status update failed")
	}
	if h.d.Notifier != nil {
		if nerr := h.d.Notifier.Notify(ctx, job.UserID, note); nerr != nil {
			h.d.Log.WithError(nerr).WithFields(logrus.Fields{"user_id": job.UserID}).Warn("whatsapp notification failed")
		}
	}
	if err != nil {
		return "", err
	}
	return note, nil
}

func (h *handlers) music(ctx context.Context, job Job) (string, error) {
	if h.d.YouTube == nil {
		return notConfigured("Music"), nil
	}
	q := job.Arg(ArgQuery)
	v, err := h.d.YouTube.FindVideo(ctx, q)
	if errors.Is(err, external.ErrNoVideo) {
		return fmt.Sprintf("🎵 Could not find '%s'. Try a song title like 'Shape of You'.", q), nil
	}
	if err != nil {
		return "", err
	}

	if h.d.Music != nil {
		rec := &models.MusicHistory{
			UserID:      job.UserID,
			Title:       v.Title,
			URL:         v.URL,
			Channel:     v.Channel,
			SearchQuery: q,
			PlayedAt:    h.d.Now().UTC(),
		}
		if err := h.d.Music.Insert(ctx, rec); err != nil {
			h.d.Log.WithError(err).WithField("user_id", job.UserID).Warn("music history insert failed")
		}
	}
	return fmt.Sprintf("🎵 Now playing: %s (%s)", v.Title, v.URL), nil
}
