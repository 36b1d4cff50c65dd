// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"filing-rag-api/internal/config"
)

var tracer = otel.Tracer("milvus")

// Client Milvus 连接封装，负责集合命名前缀与连接级操作
type Client struct {
	milvus client.Client
	config *config.MilvusConfig
}

// NewClient 建立 Milvus 连接，dialTimeout <= 0 时不限制建连时间
func NewClient(ctx context.Context, cfg *config.MilvusConfig, dialTimeout time.Duration) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("milvus config is nil")
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	clientCfg := client.Config{Address: addr}
	if cfg.User != "" && cfg.Password != "" {
		clientCfg.Username = cfg.User
		clientCfg.Password = cfg.Password
	}

	if dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dialTimeout)
		defer cancel()
	}

	mc, err := client.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", addr, err)
	}
	return &Client{milvus: mc, config: cfg}, nil
}

// Close 关闭连接
func (c *Client) Close() error {
	if c == nil || c.milvus == nil {
		return nil
	}
	return c.milvus.Close()
}

// HealthCheck 以目标集合的存在性查询探测连接
func (c *Client) HealthCheck(ctx context.Context, collection string) error {
	ctx, span := tracer.Start(ctx, "milvus.HealthCheck",
		trace.WithAttributes(attribute.String("collection", collection)))
	defer span.End()

	if _, err := c.milvus.HasCollection(ctx, c.CollectionName(collection)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}

// CollectionName 带前缀的集合名
func (c *Client) CollectionName(name string) string {
	if c.config != nil && c.config.CollectionPrefix != "" {
		return c.config.CollectionPrefix + "_" + name
	}
	return name
}

func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	ctx, span := tracer.Start(ctx, "milvus.HasCollection",
		trace.WithAttributes(attribute.String("collection", name)))
	defer span.End()

	return c.milvus.HasCollection(ctx, c.CollectionName(name))
}

// LoadCollection 同步加载集合，检索前必须完成
func (c *Client) LoadCollection(ctx context.Context, name string) error {
	ctx, span := tracer.Start(ctx, "milvus.LoadCollection",
		trace.WithAttributes(attribute.String("collection", name)))
	defer span.End()

	return c.milvus.LoadCollection(ctx, c.CollectionName(name), false)
}
