// Package research implements the market research operations shared by the
// HTTP endpoints and the MCP tools.
package research

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lydiaBn/mcp-market-research-agent/internal/chart"
	"github.com/lydiaBn/mcp-market-research-agent/internal/config"
	"github.com/lydiaBn/mcp-market-research-agent/internal/metrics"
	"github.com/lydiaBn/mcp-market-research-agent/internal/search"
	"github.com/lydiaBn/mcp-market-research-agent/internal/speech"
)

// 单次搜索和单个分析维度的结果上限
const (
	MaxSearchResults = 5
	MaxAspectResults = 3
)

// Options 服务参数
type Options struct {
	MaxResults         int
	AnalysisMaxResults int
	Concurrency        int
	DefaultVoice       string
}

// OptionsFromConfig 从配置提取服务参数
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxResults:         cfg.Search.MaxResults,
		AnalysisMaxResults: cfg.Search.AnalysisMaxResults,
		Concurrency:        cfg.Analysis.Concurrency,
		DefaultVoice:       cfg.Speech.DefaultVoice,
	}
}

// Service 市场调研服务，无状态，可并发使用
type Service struct {
	searcher search.Provider
	speaker  speech.Synthesizer
	opts     Options
	log      *zap.Logger
}

// NewService 创建服务
func NewService(searcher search.Provider, speaker speech.Synthesizer, opts Options, log *zap.Logger) *Service {
	if opts.MaxResults <= 0 || opts.MaxResults > MaxSearchResults {
		opts.MaxResults = MaxSearchResults
	}
	if opts.AnalysisMaxResults <= 0 || opts.AnalysisMaxResults > MaxAspectResults {
		opts.AnalysisMaxResults = MaxAspectResults
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Service{
		searcher: searcher,
		speaker:  speaker,
		opts:     opts,
		log:      log,
	}
}

// Search 搜索市场数据并生成摘要
func (s *Service) Search(ctx context.Context, req SearchRequest) (res Result[SearchResponse]) {
	defer s.observe(ToolSearch, time.Now(), &res)

	if err := validateRequest(req); err != nil {
		return Fail[SearchResponse](err)
	}

	depth := req.SearchDepth
	if depth == "" {
		depth = search.DepthAdvanced
	}

	results, err := s.searcher.Search(ctx, search.Request{
		Query:      req.Query,
		Depth:      depth,
		MaxResults: s.opts.MaxResults,
	})
	if err != nil {
		return Fail[SearchResponse](err)
	}
	if results == nil {
		results = []search.Result{}
	}

	return OK(SearchResponse{
		Query:   req.Query,
		Results: results,
		Summary: summarize(results),
	})
}

// Visualize 生成 Plotly 图表
func (s *Service) Visualize(ctx context.Context, req ChartRequest) (res Result[ChartResponse]) {
	defer s.observe(ToolVisualize, time.Now(), &res)

	if err := validateRequest(req); err != nil {
		return Fail[ChartResponse](err)
	}

	fig, err := chart.Build(req.Data, req.Title, req.ChartType, req.XColumn, req.YColumn)
	if err != nil {
		return Fail[ChartResponse](err)
	}
	plot, err := fig.JSON()
	if err != nil {
		return Fail[ChartResponse](fmt.Errorf("serialize chart: %w", err))
	}

	return OK(ChartResponse{PlotJSON: plot})
}

// Narrate 文本转语音，音频以 base64 返回
func (s *Service) Narrate(ctx context.Context, req NarrationRequest) (res Result[NarrationResponse]) {
	defer s.observe(ToolNarrate, time.Now(), &res)

	if err := validateRequest(req); err != nil {
		return Fail[NarrationResponse](err)
	}

	voice := req.Voice
	if voice == "" {
		voice = s.opts.DefaultVoice
	}

	audio, err := s.speaker.Synthesize(ctx, req.Text, voice)
	if err != nil {
		return Fail[NarrationResponse](err)
	}

	return OK(NarrationResponse{
		Message:        narrationMessage(req.Text),
		Text:           req.Text,
		Voice:          voice,
		AudioSizeBytes: len(audio),
		AudioBase64:    base64.StdEncoding.EncodeToString(audio),
		AudioFormat:    "mp3",
	})
}

// Analyze 按维度并发搜索并汇总成报告
// 任一维度失败则整个请求失败，其余调用被取消
func (s *Service) Analyze(ctx context.Context, req AnalysisRequest) (res Result[AnalysisResponse]) {
	defer s.observe(ToolAnalyze, time.Now(), &res)

	if err := validateRequest(req); err != nil {
		return Fail[AnalysisResponse](err)
	}

	aspects := req.Aspects
	if len(aspects) == 0 {
		aspects = append([]string(nil), DefaultAspects...)
	}

	detailed := make([]AspectResults, len(aspects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, aspect := range aspects {
		g.Go(func() error {
			results, err := s.searcher.Search(gctx, search.Request{
				Query:      req.Topic + " " + aspect,
				Depth:      search.DepthAdvanced,
				MaxResults: s.opts.AnalysisMaxResults,
			})
			if err != nil {
				return fmt.Errorf("aspect %q: %w", aspect, err)
			}
			if results == nil {
				results = []search.Result{}
			}
			detailed[i] = AspectResults{Aspect: aspect, Results: results}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Fail[AnalysisResponse](err)
	}

	return OK(AnalysisResponse{
		Topic:           req.Topic,
		Aspects:         aspects,
		Analysis:        report(detailed),
		DetailedResults: detailed,
	})
}

func (s *Service) observe(tool string, start time.Time, res Envelope) {
	err := res.Err()
	metrics.ObserveRequest(tool, start, err)
	if err != nil {
		s.log.Warn("tool request failed", zap.String("tool", tool), zap.Error(err))
	}
}
