package upstream

import (
	"context"

	"github.com/eagle-green/mysked/internal/model"
)

// TransactionQuery selects one backend page of an entity's inventory ledger.
type TransactionQuery struct {
	Entity string
	ID     string
	Limit  int
	Offset int
}

// TransactionPage is one page of transactions and the backend total.
type TransactionPage struct {
	Transactions []model.InventoryTransaction `json:"transactions"`
	Total        int                          `json:"total"`
}

// Transactions fetches GET /{entity}/{id}/inventory/transactions.
func (c *Client) Transactions(ctx context.Context, q TransactionQuery) (*TransactionPage, error) {
	body, err := c.get(ctx, EndpointTransactions, entityPath(q.Entity, q.ID, "/inventory/transactions"), pageQuery(q.Limit, q.Offset))
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			Transactions []model.InventoryTransaction `json:"transactions"`
			Pagination   *pagination                  `json:"pagination"`
		} `json:"data"`
	}
	if err := decode(body, transactionsSchema, &resp); err != nil {
		return nil, err
	}

	page := &TransactionPage{
		Transactions: resp.Data.Transactions,
		Total:        total(resp.Data.Pagination, len(resp.Data.Transactions)),
	}
	if page.Transactions == nil {
		page.Transactions = []model.InventoryTransaction{}
	}
	return page, nil
}
