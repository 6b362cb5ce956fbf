package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

type logger interface {
	Printf(format string, v ...interface{})
}

// HTTPClient implementa Provider contra una API de embeddings OpenAI-compatible.
// El warmup del modelo remoto es perezoso y con guardia single-flight: bajo
// llamadas concurrentes solo una inicializacion corre a la vez, y un warmup
// fallido se reintenta en la proxima llamada.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  logger

	warmMu sync.Mutex
	warm   bool
}

// NewHTTPClient construye un cliente apuntando al endpoint de embeddings.
// Se construye una vez al arranque del proceso y se inyecta por referencia;
// no hay singleton ambiental.
func NewHTTPClient(baseURL, apiKey, model string, log any) *HTTPClient {
	l, _ := log.(logger)
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  l,
	}
}

// Embed genera el vector denso para un texto.
func (c *HTTPClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.ensureWarm(); err != nil {
		return nil, fmt.Errorf("embedding provider unavailable: %w", err)
	}
	return c.embed(ctx, text)
}

const warmupTimeout = 30 * time.Second

// ensureWarm dispara la carga del modelo remoto antes del primer uso.
// Corre con un contexto propio, independiente del request que lo gatilla:
// la cancelacion de un llamador no puede dejar el provider marcado como
// caido. Un warmup fallido no se cachea; la siguiente llamada reintenta.
func (c *HTTPClient) ensureWarm() error {
	c.warmMu.Lock()
	defer c.warmMu.Unlock()
	if c.warm {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), warmupTimeout)
	defer cancel()
	if _, err := c.embed(ctx, "warmup"); err != nil {
		if c.logger != nil {
			c.logger.Printf("embedding warmup failed: %v", err)
		}
		return err
	}
	c.warm = true
	return nil
}

func (c *HTTPClient) embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embedRequest{
		Model: c.model,
		Input: text,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		if c.logger != nil {
			c.logger.Printf("embedding error status %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, fmt.Errorf("embedding http error: status=%d", resp.StatusCode)
	}

	var er embedResponse
	if err := json.Unmarshal(respBody, &er); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if er.Error != nil {
		return nil, fmt.Errorf("embedding api error: %s", er.Error.Message)
	}

	if len(er.Data) == 0 || len(er.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding empty response")
	}

	return er.Data[0].Embedding, nil
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
