// Package storage resolves catalog keys to playable audio. Decks take
// URLs, not readers, so the client's main job is ResolveURL: a local
// file path or a time-limited presigned object URL depending on the
// configured backend.
package storage

import (
	"strings"
	"sync"
	"time"

	"mixbooth/internal/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

type Client struct {
	backend     Provider
	bucketAudio string
	presignTTL  time.Duration

	cache      map[string][]string
	cacheTime  map[string]time.Time
	cacheMutex sync.RWMutex
}

const CacheTTL = 1 * time.Hour

func New(cfg *config.Config) *Client {
	var backend Provider

	if cfg.Storage.Provider == "local" {
		backend = NewLocalProvider(cfg.Storage.LocalRoot)
	} else {
		s3Config := &aws.Config{
			Credentials:      credentials.NewStaticCredentials(cfg.Storage.KeyID, cfg.Storage.AppKey, ""),
			Endpoint:         aws.String(cfg.Storage.Endpoint),
			Region:           aws.String(cfg.Storage.Region),
			S3ForcePathStyle: aws.Bool(true),
		}
		sess := session.Must(session.NewSession(s3Config))
		backend = NewS3Provider(sess)
	}

	ttl := time.Duration(cfg.Storage.PresignHours) * time.Hour
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Client{
		backend:     backend,
		bucketAudio: cfg.Storage.BucketAudio,
		presignTTL:  ttl,
		cache:       make(map[string][]string),
		cacheTime:   make(map[string]time.Time),
	}
}

// ResolveURL turns a track's storage key into a URL a deck can load.
func (c *Client) ResolveURL(key string) (string, error) {
	return c.backend.ResolveURL(c.bucketAudio, key, c.presignTTL)
}

func (c *Client) AudioExists(key string) (bool, error) {
	return c.backend.Exists(c.bucketAudio, key)
}

func (c *Client) DownloadAudio(key string) (*FileObject, error) {
	return c.backend.Get(c.bucketAudio, key)
}

// ListAudioFiles lists mp3 keys under a prefix, cached for an hour;
// the catalog does not change mid-session.
func (c *Client) ListAudioFiles(prefix string) ([]string, error) {
	c.cacheMutex.RLock()
	files, ok := c.cache[prefix]
	ts := c.cacheTime[prefix]
	c.cacheMutex.RUnlock()

	if ok && time.Since(ts) < CacheTTL {
		return files, nil
	}

	keys, err := c.backend.List(c.bucketAudio, prefix)
	if err != nil {
		return nil, err
	}

	var allKeys []string
	for _, key := range keys {
		if strings.HasSuffix(key, ".mp3") && key != prefix {
			allKeys = append(allKeys, key)
		}
	}

	c.cacheMutex.Lock()
	c.cache[prefix] = allKeys
	c.cacheTime[prefix] = time.Now()
	c.cacheMutex.Unlock()

	return allKeys, nil
}
