// Package omie is a minimal client for the Omie ERP directory
// endpoints this engine needs: clients (used as supplier candidates)
// and ledger categories. Both are fetched once per run and treated as
// read-only snapshots.
package omie

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/contafacil/statement-engine/internal/models"
)

// DefaultBaseURL is the production Omie API endpoint.
const DefaultBaseURL = "https://app.omie.com.br/api/v1"

// pageSize for directory listing calls.
const pageSize = 500

// Client calls the Omie general-entities API.
type Client struct {
	BaseURL   string
	AppKey    string
	AppSecret string
	HTTP      *http.Client
}

// NewClient builds a client with the given credentials.
func NewClient(appKey, appSecret string) *Client {
	return &Client{
		BaseURL:   DefaultBaseURL,
		AppKey:    appKey,
		AppSecret: appSecret,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}
}

// request is the standard Omie call envelope.
type request struct {
	Call      string        `json:"call"`
	AppKey    string        `json:"app_key"`
	AppSecret string        `json:"app_secret"`
	Param     []interface{} `json:"param"`
}

type listParams struct {
	Page    int    `json:"pagina"`
	PerPage int    `json:"registros_por_pagina"`
	Summary string `json:"apenas_importado_api,omitempty"`
}

type clientsPage struct {
	Page       int               `json:"pagina"`
	TotalPages int               `json:"total_de_paginas"`
	Clients    []models.Supplier `json:"clientes_cadastro"`
}

type categoriesPage struct {
	Page       int               `json:"pagina"`
	TotalPages int               `json:"total_de_paginas"`
	Categories []models.Category `json:"categoria_cadastro"`
}

// ListSuppliers fetches every registered client as a supplier
// candidate, paging until done.
func (c *Client) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	for page := 1; ; page++ {
		var out clientsPage
		err := c.call(ctx, "/geral/clientes/", "ListarClientes", listParams{Page: page, PerPage: pageSize}, &out)
		if err != nil {
			return nil, fmt.Errorf("listing Omie clients page %d: %w", page, err)
		}
		suppliers = append(suppliers, out.Clients...)
		if page >= out.TotalPages {
			break
		}
	}
	return suppliers, nil
}

// ListCategories fetches the ledger categories, dropping the
// "Disponível" root that is not a bookable category.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	for page := 1; ; page++ {
		var out categoriesPage
		err := c.call(ctx, "/geral/categorias/", "ListarCategorias", listParams{Page: page, PerPage: pageSize}, &out)
		if err != nil {
			return nil, fmt.Errorf("listing Omie categories page %d: %w", page, err)
		}
		for _, cat := range out.Categories {
			if cat.Description == "" || cat.Description == "Disponível" {
				continue
			}
			categories = append(categories, cat)
		}
		if page >= out.TotalPages {
			break
		}
	}
	return categories, nil
}

func (c *Client) call(ctx context.Context, path, method string, params interface{}, out interface{}) error {
	body, err := json.Marshal(request{
		Call:      method,
		AppKey:    c.AppKey,
		AppSecret: c.AppSecret,
		Param:     []interface{}{params},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("omie API returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
