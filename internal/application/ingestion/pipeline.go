package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"filing-rag-api/internal/domain/entity"
	"filing-rag-api/internal/domain/repository"
	"filing-rag-api/internal/domain/service"
	"filing-rag-api/pkg/logger"
	"filing-rag-api/pkg/metrics"
	"filing-rag-api/pkg/tracer"
)

const defaultCallTimeout = 12 * time.Second

// FileFailure 单个文件的失败记录
type FileFailure struct {
	Path  string
	Stage string
	Err   error
}

// Report 一次摄取运行的统计
type Report struct {
	Total     int
	Completed int
	Chunks    int
	Failures  []FileFailure
}

// Summary 返回运行摘要
func (r *Report) Summary() string {
	return fmt.Sprintf("Processed %d/%d without errors.", r.Completed, r.Total)
}

// Pipeline 串联 Normalizer、Chunker、Embedding 与向量库
type Pipeline struct {
	normalizer  *Normalizer
	chunker     *Chunker
	embedder    embedding.Embedder
	store       repository.VectorRepository
	callTimeout time.Duration
	newID       func() string
}

// PipelineOption 配置 Pipeline
type PipelineOption func(*Pipeline)

// WithCallTimeout 设置单次外部调用超时
func WithCallTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.callTimeout = d
		}
	}
}

// WithIDGenerator 替换记录 ID 生成函数
func WithIDGenerator(fn func() string) PipelineOption {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// NewPipeline 创建摄取流水线
func NewPipeline(normalizer *Normalizer, chunker *Chunker, embedder embedding.Embedder, store repository.VectorRepository, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		normalizer:  normalizer,
		chunker:     chunker,
		embedder:    embedder,
		store:       store,
		callTimeout: defaultCallTimeout,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run 处理 sourceDir 下全部 .json 申报文件。
// 单个文件失败只记录并跳过；仅在集合不可用或目录无法遍历时返回错误。
func (p *Pipeline) Run(ctx context.Context, sourceDir, completedDir string) (*Report, error) {
	ctx = logger.WithContext(ctx, logger.RunIDKey, uuid.NewString())
	ctx, span := tracer.Start(ctx, "ingestion.run")
	defer span.End()

	if err := p.withTimeout(ctx, p.store.EnsureCollection); err != nil {
		tracer.RecordError(span, err)
		return nil, &UpstreamError{Op: "ensure collection", Err: err}
	}

	files, err := collectFiles(sourceDir, completedDir)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	report := &Report{Total: len(files)}
	logger.Info(ctx, "ingestion started", "source_dir", sourceDir, "files", len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		fileCtx := logger.WithContext(ctx, logger.FileKey, filepath.Base(path))
		start := time.Now()
		chunks, err := p.ingestFile(fileCtx, path)
		if err == nil {
			if mvErr := moveFile(path, completedDir); mvErr != nil {
				err = &moveError{Err: mvErr}
			}
		}
		metrics.IngestionFileDuration.Observe(time.Since(start).Seconds())
		report.Chunks += chunks

		if err != nil {
			stage := Stage(err)
			report.Failures = append(report.Failures, FileFailure{Path: path, Stage: stage, Err: err})
			metrics.IngestionFilesTotal.WithLabelValues(stage).Inc()
			logger.Error(fileCtx, "filing skipped", err, "stage", stage, "chunks_written", chunks)
			continue
		}

		report.Completed++
		metrics.IngestionFilesTotal.WithLabelValues("completed").Inc()
		logger.Info(fileCtx, "filing ingested", "chunks", chunks, "duration_ms", time.Since(start).Milliseconds())
	}

	span.SetAttributes(
		attribute.Int("ingestion.total", report.Total),
		attribute.Int("ingestion.completed", report.Completed),
	)
	logger.Info(ctx, report.Summary(), "chunks", report.Chunks, "failures", len(report.Failures))
	return report, nil
}

// IngestFile 处理单个文件但不移动，返回写入的块数
func (p *Pipeline) IngestFile(ctx context.Context, path string) (int, error) {
	return p.ingestFile(ctx, path)
}

func (p *Pipeline) ingestFile(ctx context.Context, path string) (int, error) {
	ctx, span := tracer.Start(ctx, "ingestion.file")
	defer span.End()
	span.SetAttributes(attribute.String("file", filepath.Base(path)))

	data, err := os.ReadFile(path)
	if err != nil {
		tracer.RecordError(span, err)
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var rec entity.FilingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		err = &ParseError{Field: "json", Err: err}
		tracer.RecordError(span, err)
		return 0, err
	}

	sections, err := p.normalizer.Normalize(filepath.Base(path), &rec)
	if err != nil {
		tracer.RecordError(span, err)
		return 0, err
	}
	if len(sections) > 0 {
		ctx = logger.WithContext(ctx, logger.TickerKey, sections[0].Ticker)
	}

	written := 0
	for _, section := range sections {
		for idx, chunk := range p.chunker.Chunks(section.Content) {
			if err := p.storeChunk(ctx, section, idx, chunk); err != nil {
				tracer.RecordError(span, err)
				return written, err
			}
			written++
			metrics.IngestionChunksTotal.Inc()
		}
		logger.Debug(ctx, "section stored", "item", section.ItemName)
	}
	return written, nil
}

func (p *Pipeline) storeChunk(ctx context.Context, section *entity.NormalizedSection, idx int, chunk string) error {
	embedCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	vec, err := service.EmbedText(embedCtx, p.embedder, chunk)
	cancel()
	if err != nil {
		return &UpstreamError{Op: "embed " + entity.BuildFileID(section, idx), Err: err}
	}

	record := &entity.VectorRecord{
		ID:      p.newID(),
		Vector:  vec,
		Payload: entity.NewChunkPayload(section, idx, chunk),
	}
	err = p.withTimeout(ctx, func(ctx context.Context) error {
		return p.store.Upsert(ctx, record)
	})
	if err != nil {
		return &UpstreamError{Op: "upsert " + record.Payload.FileID, Err: err}
	}
	return nil
}

func (p *Pipeline) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	return fn(ctx)
}

// collectFiles 递归收集 .json 文件并按路径排序，跳过完成目录
func collectFiles(sourceDir, completedDir string) ([]string, error) {
	skip := ""
	if completedDir != "" {
		if abs, err := filepath.Abs(completedDir); err == nil {
			skip = abs
		}
	}

	var files []string
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skip != "" && path != sourceDir {
				if abs, absErr := filepath.Abs(path); absErr == nil && abs == skip {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", sourceDir, err)
	}
	sort.Strings(files)
	return files, nil
}

// moveFile 将文件移入 dstDir，同名文件被覆盖
func moveFile(src, dstDir string) error {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(dstDir, filepath.Base(src))
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	// 跨设备时退化为复制后删除
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
