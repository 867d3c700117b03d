package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/neilberkman/vigil/internal/core/app"
	"github.com/neilberkman/vigil/internal/core/errvalues"
	"github.com/neilberkman/vigil/internal/core/export"
	"github.com/neilberkman/vigil/internal/core/journal"
	"github.com/neilberkman/vigil/internal/core/models"
	"github.com/neilberkman/vigil/internal/core/novena"
	"github.com/neilberkman/vigil/internal/core/search"
)

// JournalArgs are the journal fields shared by every tool that writes a
// journal. Omitted or null fields leave the stored value unchanged; an empty
// string or empty array clears it.
type JournalArgs struct {
	DurationMinutes *float64  `json:"duration_minutes,omitempty" jsonschema:"description=How long the prayer took in minutes"`
	Intention       *string   `json:"intention,omitempty" jsonschema:"description=Intention"`
	Reflection      *string   `json:"reflection,omitempty" jsonschema:"description=Reflection"`
	Mood            *string   `json:"mood,omitempty" jsonschema:"description=Mood"`
	Gratitudes      *[]string `json:"gratitudes,omitempty" jsonschema:"description=Up to 5 gratitudes"`
	Insights        *string   `json:"insights,omitempty" jsonschema:"description=Insights"`
	Tags            *[]string `json:"tags,omitempty" jsonschema:"description=Up to 5 tags"`
}

// Patch converts the arguments to a journal patch
func (j JournalArgs) Patch() journal.Patch {
	p := journal.Patch{
		Intention:  j.Intention,
		Reflection: j.Reflection,
		Gratitudes: j.Gratitudes,
		Insights:   j.Insights,
		Tags:       j.Tags,
	}
	if j.DurationMinutes != nil {
		p.Duration = journal.Int(int(*j.DurationMinutes * 60))
	}
	if j.Mood != nil {
		p.Mood = journal.MoodOf(models.Mood(strings.ToLower(*j.Mood)))
	}
	return p
}

// LogPrayerArgs defines arguments for the log_prayer tool
type LogPrayerArgs struct {
	Kind      string `json:"kind" jsonschema:"description=rosary, chaplet or 54-day,required"`
	Mystery   string `json:"mystery,omitempty" jsonschema:"description=Rosary mysteries (default: the mysteries of the day)"`
	ChapletID string `json:"chaplet_id,omitempty" jsonschema:"description=Chaplet name, required for chaplets"`
	Day       int    `json:"day,omitempty" jsonschema:"description=Day of the 54-day novena (1-54)"`
	Completed bool   `json:"completed,omitempty" jsonschema:"description=Mark the session completed right away"`
	JournalArgs
}

// SessionArgs defines arguments for complete_session and update_journal
type SessionArgs struct {
	SessionID string `json:"session_id" jsonschema:"description=Session id,required"`
	JournalArgs
}

// SearchSessionsArgs defines arguments for the search_sessions tool
type SearchSessionsArgs struct {
	Query string `json:"query" jsonschema:"description=Search text with optional kind:, after:, before:, date: filters,required"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Max number of sessions to return (default: 20)"`
}

// RecentSessionsArgs defines arguments for the recent_sessions tool
type RecentSessionsArgs struct {
	Days  int `json:"days,omitempty" jsonschema:"description=Trailing window in days, today included (default from config)"`
	Limit int `json:"limit,omitempty" jsonschema:"description=Max sessions to return (default: 50)"`
}

// StartNovenaArgs defines arguments for the start_novena tool
type StartNovenaArgs struct {
	Novena    string `json:"novena" jsonschema:"description=Catalog key such as st-jude,required"`
	Intention string `json:"intention,omitempty" jsonschema:"description=Intention for the novena"`
}

// NovenaDayArgs defines arguments for the complete_novena_day tool
type NovenaDayArgs struct {
	NovenaID string `json:"novena_id" jsonschema:"description=Novena id,required"`
	Day      int    `json:"day,omitempty" jsonschema:"description=Day 1-9 (default: next available day)"`
	JournalArgs
}

// NovenaArgs defines arguments for tools that take only a novena id
type NovenaArgs struct {
	NovenaID string `json:"novena_id" jsonschema:"description=Novena id,required"`
}

// ListNovenasArgs defines arguments for the list_novenas tool
type ListNovenasArgs struct {
	IncludeCompleted bool `json:"include_completed,omitempty" jsonschema:"description=Include finished novenas"`
}

// SessionResult is a session plus a human-readable label
type SessionResult struct {
	models.PrayerSession
	Label string `json:"label"`
}

// NovenaResult is a novena plus the day that can be prayed now
type NovenaResult struct {
	models.ActiveNovena
	Title        string `json:"title"`
	NextDay      int    `json:"nextAvailableDay,omitempty"`
	NextDayOpens string `json:"nextDayOpens,omitempty"`
}

type handler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// NewServer registers every tool against the app's stores
func NewServer(a *app.App) *server.MCPServer {
	s := server.NewMCPServer(
		"Vigil",
		"1.0.0",
	)

	s.AddTool(mcp.NewTool("log_prayer",
		append([]mcp.ToolOption{
			mcp.WithDescription("Log a prayer session dated today: a rosary, a chaplet, or a day of the 54-day rosary novena. Optionally mark it completed and attach a journal entry."),
			mcp.WithString("kind", mcp.Required(), mcp.Description("rosary, chaplet or 54-day")),
			mcp.WithString("mystery", mcp.Description("joyful, sorrowful, glorious or luminous (default: the mysteries of the day)")),
			mcp.WithString("chaplet_id", mcp.Description("Chaplet name, e.g. divine-mercy (required for chaplets)")),
			mcp.WithNumber("day", mcp.Description("Day of the 54-day novena (1-54)")),
			mcp.WithBoolean("completed", mcp.Description("Mark the session completed right away")),
		}, withJournal()...)...,
	), makeLogPrayerHandler(a))

	s.AddTool(mcp.NewTool("complete_session",
		append([]mcp.ToolOption{
			mcp.WithDescription("Mark a prayer session completed. Journal fields that are not supplied keep their stored values."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		}, withJournal()...)...,
	), makeCompleteSessionHandler(a))

	s.AddTool(mcp.NewTool("update_journal",
		append([]mcp.ToolOption{
			mcp.WithDescription("Update the journal of a prayer session without changing whether it is completed. Only supplied fields change; pass an empty value to clear one."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		}, withJournal()...)...,
	), makeUpdateJournalHandler(a))

	s.AddTool(mcp.NewTool("search_sessions",
		mcp.WithDescription("Search the prayer journal (intentions, reflections, insights, gratitudes, tags; case-insensitive). Supports kind:<type>, after:<date>, before:<date>, date:<date> and done filters inside the query."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text and filters")),
		mcp.WithNumber("limit", mcp.Description("Max number of sessions to return (default: 20)")),
	), makeSearchSessionsHandler(a))

	s.AddTool(mcp.NewTool("recent_sessions",
		mcp.WithDescription("List prayer sessions from the last N days, newest first"),
		mcp.WithNumber("days", mcp.Description("Trailing window in days, today included")),
		mcp.WithNumber("limit", mcp.Description("Max sessions to return (default: 50)")),
	), makeRecentSessionsHandler(a))

	s.AddTool(mcp.NewTool("get_streak",
		mcp.WithDescription("Get the current and longest daily prayer streak and the number of days prayed"),
	), makeGetStreakHandler(a))

	s.AddTool(mcp.NewTool("start_novena",
		mcp.WithDescription("Start a nine-day novena from the catalog: "+catalogKeys()),
		mcp.WithString("novena", mcp.Required(), mcp.Description("Catalog key")),
		mcp.WithString("intention", mcp.Description("Intention for the novena")),
	), makeStartNovenaHandler(a))

	s.AddTool(mcp.NewTool("complete_novena_day",
		append([]mcp.ToolOption{
			mcp.WithDescription("Pray one day of an active novena. Day N opens N-1 full days after the start; missed days can be caught up."),
			mcp.WithString("novena_id", mcp.Required(), mcp.Description("Novena id")),
			mcp.WithNumber("day", mcp.Description("Day 1-9 (default: next available day)")),
		}, withJournal()...)...,
	), makeCompleteNovenaDayHandler(a))

	s.AddTool(mcp.NewTool("list_novenas",
		mcp.WithDescription("List novenas with their progress and the day that can be prayed now"),
		mcp.WithBoolean("include_completed", mcp.Description("Include finished novenas")),
	), makeListNovenasHandler(a))

	s.AddTool(mcp.NewTool("remove_novena",
		mcp.WithDescription("Remove a novena and every session logged for it"),
		mcp.WithString("novena_id", mcp.Required(), mcp.Description("Novena id")),
	), makeRemoveNovenaHandler(a))

	return s
}

// StartServer serves the tools over stdio until the client disconnects
func StartServer(a *app.App) error {
	return server.ServeStdio(NewServer(a))
}

func withJournal() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("duration_minutes", mcp.Description("How long the prayer took in minutes")),
		mcp.WithString("intention", mcp.Description("Intention")),
		mcp.WithString("reflection", mcp.Description("Reflection")),
		mcp.WithString("mood", mcp.Description("One of: peaceful, grateful, joyful, hopeful, anxious, sorrowful, struggling, distracted")),
		mcp.WithArray("gratitudes", mcp.Description("Up to 5 things you are grateful for"), mcp.WithStringItems()),
		mcp.WithString("insights", mcp.Description("Insights")),
		mcp.WithArray("tags", mcp.Description("Up to 5 tags"), mcp.WithStringItems()),
	}
}

func catalogKeys() string {
	var keys []string
	for _, info := range models.NovenaCatalog() {
		keys = append(keys, string(info.Kind))
	}
	return strings.Join(keys, ", ")
}

func bindArgs(request mcp.CallToolRequest, args interface{}) error {
	argsBytes, _ := json.Marshal(request.Params.Arguments)
	return json.Unmarshal(argsBytes, args)
}

// respond encodes v as the tool result. Persistence failures still return
// the result, with a warning, because the change took effect in memory.
func respond(v interface{}, err error) (*mcp.CallToolResult, error) {
	payload := map[string]interface{}{"result": v}
	if err != nil {
		if !errors.Is(err, errvalues.ErrPersistence) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		payload["warning"] = "saved in memory but not on disk: " + err.Error()
	}

	resultJSON, merr := json.Marshal(payload)
	if merr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", merr)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func sessionResults(sessions []models.PrayerSession) []SessionResult {
	results := make([]SessionResult, 0, len(sessions))
	for _, s := range sessions {
		results = append(results, SessionResult{PrayerSession: s, Label: export.Label(s.Kind)})
	}
	return results
}

func makeLogPrayerHandler(a *app.App) handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args LogPrayerArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		var kind models.Kind
		switch strings.ToLower(args.Kind) {
		case "rosary", string(models.KindDailyRosary):
			mystery := models.Mystery(strings.ToLower(args.Mystery))
			if mystery == "" {
				mystery = models.MysteryForWeekday(a.Today().Weekday())
			}
			kind = models.DailyRosary(mystery)
		case "chaplet":
			kind = models.Chaplet(args.ChapletID)
		case "54-day", string(models.KindFiftyFourDay):
			var err error
			if kind, err = models.FiftyFourDay(args.Day); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q: expected rosary, chaplet or 54-day", args.Kind)), nil
		}

		session, err := a.Sessions.Create(kind, args.Patch())
		if err != nil && !errors.Is(err, errvalues.ErrPersistence) {
			return respond(nil, err)
		}
		if args.Completed {
			var cerr error
			session, cerr = a.Sessions.Complete(session.ID, nil, journal.Patch{})
			err = errors.Join(err, cerr)
		}
		return respond(SessionResult{PrayerSession: session, Label: export.Label(session.Kind)}, err)
	}
}

func makeCompleteSessionHandler(a *app.App) handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SessionArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		patch := args.Patch()
		session, err := a.Sessions.Complete(args.SessionID, patch.Duration, patch)
		if err != nil && !errors.Is(err, errvalues.ErrPersistence) {
			return respond(nil, err)
		}
		return respond(map[string]interface{}{
			"session": SessionResult{PrayerSession: session, Label: export.Label(session.Kind)},
			"streak":  a.Streak.State(),
		}, err)
	}
}

func makeUpdateJournalHandler(a *app.App) handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SessionArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		session, err := a.Sessions.UpdateJournal(args.SessionID, args.Patch())
		if err != nil && !errors.Is(err, errvalues.ErrPersistence) {
			return respond(nil, err)
		}
		return respond(SessionResult{PrayerSession: session, Label: export.Label(session.Kind)}, err)
	}
}

func makeSearchSessionsHandler(a *app.App) handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SearchSessionsArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		// Set defaults (interface concern - pagination)
		filters := search.ParseQuery(args.Query, a.Clock.Now())
		filters.Limit = args.Limit
		if filters.Limit <= 0 {
			filters.Limit = 20
		}

		return respond(map[string]interface{}{
			"sessions": sessionResults(a.Sessions.Query(filters)),
		}, nil)
	}
}

func makeRecentSessionsHandler(a *app.App) handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args RecentSessionsArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		days := args.Days
		if days <= 0 {
			days = a.Config.RecentDays
		}
		limit := args.Limit
		if limit <= 0 {
			limit = 50
		}

		sessions := a.Sessions.Recent(days)
		if len(sessions) > limit {
			sessions = sessions[:limit]
		}
		return respond(map[string]interface{}{
			"days":     days,
			"sessions": sessionResults(sessions),
		}, nil)
	}
}

func makeGetStreakHandler(a *app.App) handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return respond(a.Streak.Preview(a.Sessions.All(), a.Today()), nil)
	}
}

func makeStartNovenaHandler(a *app.App) handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args StartNovenaArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		n, err := a.Novenas.Start(models.NovenaKind(strings.ToLower(args.Novena)), args.Intention)
		if err != nil && !errors.Is(err, errvalues.ErrPersistence) {
			return respond(nil, err)
		}
		return respond(novenaResult(a, n), err)
	}
}

func makeCompleteNovenaDayHandler(a *app.App) handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args NovenaDayArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		day := args.Day
		if day == 0 {
			n, err := a.Novenas.Get(args.NovenaID)
			if err != nil {
				return respond(nil, err)
			}
			next, ok := a.Novenas.NextAvailableDay(n)
			if !ok {
				return mcp.NewToolResultError("no day of this novena can be prayed right now"), nil
			}
			day = next
		}

		n, session, err := a.Novenas.CompleteDay(args.NovenaID, day, args.Patch())
		if err != nil && !errors.Is(err, errvalues.ErrPersistence) {
			return respond(nil, err)
		}
		return respond(map[string]interface{}{
			"novena":  novenaResult(a, n),
			"session": SessionResult{PrayerSession: session, Label: export.Label(session.Kind)},
		}, err)
	}
}

func makeListNovenasHandler(a *app.App) handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ListNovenasArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		results := []NovenaResult{}
		for _, n := range a.Novenas.List() {
			if n.IsCompleted && !args.IncludeCompleted {
				continue
			}
			results = append(results, novenaResult(a, n))
		}
		return respond(map[string]interface{}{"novenas": results}, nil)
	}
}

func makeRemoveNovenaHandler(a *app.App) handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args NovenaArgs
		if err := bindArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		removed, err := a.Novenas.Remove(args.NovenaID)
		return respond(map[string]interface{}{"removed": removed}, err)
	}
}

func novenaResult(a *app.App, n models.ActiveNovena) NovenaResult {
	result := NovenaResult{ActiveNovena: n, Title: string(n.Kind)}
	if info, ok := models.LookupNovena(n.Kind); ok {
		result.Title = info.Title
	}
	if n.IsCompleted {
		return result
	}
	if day, ok := a.Novenas.NextAvailableDay(n); ok {
		result.NextDay = day
		return result
	}
	for day := 1; day <= models.NovenaLength; day++ {
		if !n.HasCompleted(day) {
			result.NextDayOpens = n.StartDate.Add(novena.DayOffset(day)).Format(time.RFC3339)
			break
		}
	}
	return result
}
