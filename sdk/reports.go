package ndexpress

import "context"

// OpenReport opens a new expense report. Fails with a conflict while another
// report is still open.
func (c *Client) OpenReport(ctx context.Context, description string) (*Report, error) {
	body := map[string]string{"description": description}
	var resp envelope[*Report]
	if err := c.post(ctx, "/reports", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CurrentReport fetches the currently open report.
func (c *Client) CurrentReport(ctx context.Context) (*Report, error) {
	var resp envelope[*Report]
	if err := c.get(ctx, "/reports/open", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CloseReport finalizes a report.
func (c *Client) CloseReport(ctx context.Context, reportID, description string) (*Report, error) {
	body := map[string]string{"description": description}
	var resp envelope[*Report]
	if err := c.post(ctx, "/reports/"+reportID+"/close", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SetAdvance records the advance paid for a report.
func (c *Client) SetAdvance(ctx context.Context, reportID string, amount float64) (*Report, error) {
	body := map[string]float64{"amount": amount}
	var resp envelope[*Report]
	if err := c.put(ctx, "/reports/"+reportID+"/advance", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// AddLaunch records one expense on a report.
func (c *Client) AddLaunch(ctx context.Context, reportID string, launch LaunchRequest) (*Expense, error) {
	var resp envelope[*Expense]
	if err := c.post(ctx, "/reports/"+reportID+"/expenses", launch, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListLaunches returns a report's expenses, newest first.
func (c *Client) ListLaunches(ctx context.Context, reportID string) ([]Expense, error) {
	var resp envelope[struct {
		Expenses []Expense `json:"expenses"`
		Count    int       `json:"count"`
	}]
	if err := c.get(ctx, "/reports/"+reportID+"/expenses", &resp); err != nil {
		return nil, err
	}
	return resp.Data.Expenses, nil
}

// DeleteLaunch removes one expense.
func (c *Client) DeleteLaunch(ctx context.Context, expenseID string) error {
	return c.delete(ctx, "/expenses/"+expenseID)
}

// Summarize returns a report's per-category totals and balance.
func (c *Client) Summarize(ctx context.Context, reportID string) (*Summary, error) {
	var resp envelope[*Summary]
	if err := c.get(ctx, "/reports/"+reportID+"/summary", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
