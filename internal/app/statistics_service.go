package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"devexchange-service/internal/domain"
)

// StatisticsService aggregates vote counters into per-option percentages.
type StatisticsService struct {
	categories CategoryRepository
	images     ImageRepository
	votes      VoteRepository
	tracker    RespondentTracker
	hub        *StatisticsHub
	logger     *slog.Logger
	now        func() time.Time
}

func NewStatisticsService(categories CategoryRepository, images ImageRepository, votes VoteRepository, tracker RespondentTracker, hub *StatisticsHub, logger *slog.Logger) *StatisticsService {
	return &StatisticsService{
		categories: categories,
		images:     images,
		votes:      votes,
		tracker:    tracker,
		hub:        hub,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *StatisticsService) WithClock(now func() time.Time) *StatisticsService {
	s.now = now
	return s
}

// Statistics aggregates one category, or every category when configLinkID is 0.
func (s *StatisticsService) Statistics(ctx context.Context, configLinkID int64) (domain.Statistics, error) {
	var cats []domain.Category
	if configLinkID != 0 {
		cat, err := s.categories.GetCategoryByLink(ctx, configLinkID)
		if err != nil {
			return domain.Statistics{}, err
		}
		cats = []domain.Category{cat}
	} else {
		all, err := s.categories.ListCategories(ctx)
		if err != nil {
			return domain.Statistics{}, err
		}
		cats = all
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].ConfigLinkID < cats[j].ConfigLinkID })

	votes, err := s.votes.ListVotes(ctx, configLinkID)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("list votes: %w", err)
	}
	byLink := make(map[int64][]domain.VoteCount)
	for _, v := range votes {
		byLink[v.ConfigLinkID] = append(byLink[v.ConfigLinkID], v)
	}

	out := domain.Statistics{GeneratedAt: s.now().UTC(), Categories: make([]domain.CategoryStatistic, 0, len(cats))}
	for _, cat := range cats {
		stat, err := s.categoryStatistic(ctx, cat, byLink[cat.ConfigLinkID])
		if err != nil {
			return domain.Statistics{}, err
		}
		out.Categories = append(out.Categories, stat)
	}
	return out, nil
}

// CategoryStatistics aggregates a single category by link id.
func (s *StatisticsService) CategoryStatistics(ctx context.Context, configLinkID int64) (domain.CategoryStatistic, error) {
	cat, err := s.categories.GetCategoryByLink(ctx, configLinkID)
	if err != nil {
		return domain.CategoryStatistic{}, err
	}
	votes, err := s.votes.ListVotes(ctx, configLinkID)
	if err != nil {
		return domain.CategoryStatistic{}, fmt.Errorf("list votes: %w", err)
	}
	return s.categoryStatistic(ctx, cat, votes)
}

func (s *StatisticsService) categoryStatistic(ctx context.Context, cat domain.Category, votes []domain.VoteCount) (domain.CategoryStatistic, error) {
	questions, err := s.categories.ListQuestions(ctx, cat.ID)
	if err != nil {
		return domain.CategoryStatistic{}, err
	}
	images, err := s.images.ListImagesByLink(ctx, cat.ConfigLinkID, false)
	if err != nil {
		return domain.CategoryStatistic{}, err
	}
	return buildCategoryStatistic(cat, questions, images, votes), nil
}

// buildCategoryStatistic lists every image that is registered or has votes,
// and every defined option of every question, zero counts included.
func buildCategoryStatistic(cat domain.Category, questions []domain.Question, images []domain.ImageUpload, votes []domain.VoteCount) domain.CategoryStatistic {
	type optionKey struct {
		image    string
		question int64
		option   int64
	}
	counts := make(map[optionKey]int64, len(votes))
	paths := make(map[string]string)
	for _, img := range images {
		paths[img.ImageName] = img.ImagePath
	}
	for _, v := range votes {
		counts[optionKey{v.ImageName, v.QuestionID, v.OptionID}] += v.Count
		if _, ok := paths[v.ImageName]; !ok {
			paths[v.ImageName] = ""
		}
	}
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	sorted := append([]domain.Question(nil), questions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].QuestionKey < sorted[j].QuestionKey })

	stat := domain.CategoryStatistic{
		CategoryID:   cat.ID,
		CategoryName: cat.CategoryName,
		ConfigLinkID: cat.ConfigLinkID,
		Images:       make([]domain.ImageStatistic, 0, len(names)),
	}
	for _, name := range names {
		imgStat := domain.ImageStatistic{ImageName: name, ImagePath: paths[name], Questions: make([]domain.QuestionStatistic, 0, len(sorted))}
		for _, q := range sorted {
			qs := domain.QuestionStatistic{
				QuestionID:   q.ID,
				QuestionKey:  q.QuestionKey,
				QuestionText: q.QuestionText,
				Options:      make([]domain.OptionStatistic, 0, len(q.Options)),
			}
			for _, o := range q.Options {
				qs.TotalVotes += counts[optionKey{name, q.ID, o.ID}]
			}
			for _, o := range q.Options {
				c := counts[optionKey{name, q.ID, o.ID}]
				qs.Options = append(qs.Options, domain.OptionStatistic{
					OptionID:   o.ID,
					OptionText: o.OptionText,
					Count:      c,
					Percentage: domain.Percentage(c, qs.TotalVotes),
				})
			}
			sort.SliceStable(qs.Options, func(i, j int) bool { return qs.Options[i].OptionID < qs.Options[j].OptionID })
			imgStat.Questions = append(imgStat.Questions, qs)
		}
		stat.Images = append(stat.Images, imgStat)
	}
	return stat
}

// Export renders the aggregate as "json" or "csv".
func (s *StatisticsService) Export(ctx context.Context, format string, configLinkID int64) (domain.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "json" && format != "csv" {
		return domain.ExportFile{}, domain.Invalid("format must be json or csv")
	}
	stats, err := s.Statistics(ctx, configLinkID)
	if err != nil {
		return domain.ExportFile{}, err
	}
	name := "answer-statistics-" + stats.GeneratedAt.Format("20060102-150405")

	if format == "json" {
		body, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return domain.ExportFile{}, fmt.Errorf("encode json export: %w", err)
		}
		return domain.ExportFile{FileName: name + ".json", ContentType: "application/json", Body: body}, nil
	}

	body, err := encodeStatisticsCSV(stats)
	if err != nil {
		return domain.ExportFile{}, fmt.Errorf("encode csv export: %w", err)
	}
	return domain.ExportFile{FileName: name + ".csv", ContentType: "text/csv", Body: body}, nil
}

var csvHeader = []string{"configLinkId", "categoryName", "imageName", "questionKey", "questionText", "optionText", "count", "percentage"}

func encodeStatisticsCSV(stats domain.Statistics) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, cat := range stats.Categories {
		link := strconv.FormatInt(cat.ConfigLinkID, 10)
		for _, img := range cat.Images {
			for _, q := range img.Questions {
				for _, o := range q.Options {
					row := []string{
						link,
						cat.CategoryName,
						img.ImageName,
						q.QuestionKey,
						q.QuestionText,
						o.OptionText,
						strconv.FormatInt(o.Count, 10),
						strconv.FormatFloat(o.Percentage, 'f', 2, 64),
					}
					if err := w.Write(row); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Trend counts unique respondents of a category over the fixed day windows.
func (s *StatisticsService) Trend(ctx context.Context, configLinkID int64) (domain.Trend, error) {
	if _, err := s.categories.GetCategoryByLink(ctx, configLinkID); err != nil {
		return domain.Trend{}, err
	}
	now := s.now().UTC()
	trend := domain.Trend{ConfigLinkID: configLinkID, Buckets: make([]domain.TrendBucket, 0, len(domain.TrendWindows))}
	for _, days := range domain.TrendWindows {
		var since time.Time
		label := "all"
		if days > 0 {
			since = now.Add(-time.Duration(days) * 24 * time.Hour)
			label = strconv.Itoa(days) + "d"
		}
		n, err := s.tracker.CountSince(ctx, configLinkID, since)
		if err != nil {
			return domain.Trend{}, fmt.Errorf("count respondents: %w", err)
		}
		trend.Buckets = append(trend.Buckets, domain.TrendBucket{Label: label, Days: days, UniqueUsers: n})
	}
	return trend, nil
}

// Subscribe streams statistics for a category, starting with the current
// snapshot. The caller must invoke cancel to release the subscription.
// Registration precedes the snapshot so submissions made meanwhile are
// broadcast to the new channel.
func (s *StatisticsService) Subscribe(ctx context.Context, configLinkID int64) (<-chan domain.CategoryStatistic, func(), error) {
	ch, cancel := s.hub.subscribe(configLinkID)
	initial, err := s.CategoryStatistics(ctx, configLinkID)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	s.hub.deliverInitial(configLinkID, ch, initial)
	return ch, cancel, nil
}

// Publish recomputes a category's statistics for live subscribers, if any.
func (s *StatisticsService) Publish(ctx context.Context, configLinkID int64) {
	if !s.hub.hasSubscribers(configLinkID) {
		return
	}
	stat, err := s.CategoryStatistics(ctx, configLinkID)
	if err != nil {
		s.logger.Warn("live statistics refresh failed", "configLinkId", configLinkID, "error", err)
		return
	}
	s.hub.broadcast(configLinkID, stat)
}
