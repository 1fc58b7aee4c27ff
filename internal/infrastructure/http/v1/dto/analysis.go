package dto

import (
	"time"

	"nedlog/internal/domain/analysis"
	"nedlog/internal/domain/reports"
	"nedlog/internal/domain/session"
	"nedlog/internal/metadata"
)

// --- Requests ---

// OpenSessionRequest opens an analysis of the selected sales orders.
// An empty selection is answered with NO_SELECTION by the service.
type OpenSessionRequest struct {
	OrderIDs []string `json:"orderIds"`
	Mode     string   `json:"mode"`
}

// MaterialRequestsRequest runs the full chain for the selected orders and creates material requests.
type MaterialRequestsRequest struct {
	OrderIDs []string `json:"orderIds"`
}

// SetColumnsRequest replaces the visible columns.
type SetColumnsRequest struct {
	Visible []string `json:"visible" binding:"required"`
}

// ApplyPresetRequest selects a named column preset.
type ApplyPresetRequest struct {
	Name string `json:"name" binding:"required"`
}

// RowFilterRequest sets the row filter. An empty expression clears it.
type RowFilterRequest struct {
	Expression string `json:"expression"`
}

// SendEmailRequest mails the current display.
type SendEmailRequest struct {
	Recipients string `json:"recipients" binding:"required"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	AttachPDF  bool   `json:"attachPdf"`
}

// SpreadsheetRequest names the exported spreadsheet.
type SpreadsheetRequest struct {
	Filename string `json:"filename"`
}

// --- Responses ---

// ColumnResponse describes one column of the report.
type ColumnResponse struct {
	Key            string `json:"key"`
	Label          string `json:"label"`
	Align          string `json:"align"`
	DefaultVisible bool   `json:"defaultVisible"`
}

// ColumnsResponse lists every column and preset.
type ColumnsResponse struct {
	Columns []ColumnResponse    `json:"columns"`
	Presets map[string][]string `json:"presets"`
}

// FromRegistry converts the column registry.
func FromRegistry(reg *metadata.Registry) ColumnsResponse {
	presets := make(map[string][]string)
	for _, name := range reg.PresetNames() {
		sel, _ := reg.Preset(name)
		presets[name] = columnKeys(sel)
	}
	return ColumnsResponse{
		Columns: fromColumns(reg.Columns()),
		Presets: presets,
	}
}

// StatsResponse summarizes an analysis.
type StatsResponse struct {
	SalesOrders        int `json:"salesOrders"`
	FinishedGoods      int `json:"finishedGoods"`
	RawMaterialsUnique int `json:"rawMaterialsUnique"`
	RawMaterialsLines  int `json:"rawMaterialsLines"`
	ItemsWithShortage  int `json:"itemsWithShortage"`
	Sufficient         int `json:"sufficient"`
	Short              int `json:"short"`
}

// MaterialRequestResponse is one created material request.
type MaterialRequestResponse struct {
	Name                string `json:"name"`
	MaterialRequestType string `json:"materialRequestType"`
	ProviderType        string `json:"providerType,omitempty"`
	ProviderCode        string `json:"providerCode,omitempty"`
	ProviderName        string `json:"providerName,omitempty"`
	Warehouse           string `json:"warehouse,omitempty"`
	ItemsCount          int    `json:"itemsCount"`
	Status              string `json:"status,omitempty"`
}

// MaterialRequestsResponse lists created material requests.
type MaterialRequestsResponse struct {
	Items []MaterialRequestResponse `json:"items"`
	Count int                       `json:"count"`
}

// FromMaterialRequests converts created material requests.
func FromMaterialRequests(results []analysis.MaterialRequestResult) MaterialRequestsResponse {
	items := make([]MaterialRequestResponse, len(results))
	for i, r := range results {
		items[i] = MaterialRequestResponse{
			Name:                r.Name,
			MaterialRequestType: r.MaterialRequestType,
			ProviderType:        r.ProviderType,
			ProviderCode:        r.ProviderCode,
			ProviderName:        r.ProviderName,
			Warehouse:           r.Warehouse,
			ItemsCount:          r.ItemsCount,
			Status:              r.Status,
		}
	}
	return MaterialRequestsResponse{Items: items, Count: len(items)}
}

// SessionResponse describes an analysis session without its rows.
type SessionResponse struct {
	ID               string                    `json:"id"`
	Mode             string                    `json:"mode"`
	OrderIDs         []string                  `json:"orderIds"`
	CreatedBy        string                    `json:"createdBy,omitempty"`
	CreatedAt        time.Time                 `json:"createdAt"`
	UpdatedAt        time.Time                 `json:"updatedAt"`
	Stats            StatsResponse             `json:"stats"`
	Divergences      int                       `json:"divergences"`
	VisibleColumns   []string                  `json:"visibleColumns"`
	RowFilter        string                    `json:"rowFilter,omitempty"`
	MaterialRequests []MaterialRequestResponse `json:"materialRequests,omitempty"`
}

// FromSession converts a session.
func FromSession(s *session.Session) SessionResponse {
	resp := SessionResponse{
		ID:             s.ID,
		Mode:           string(s.Mode),
		OrderIDs:       s.OrderIDs,
		CreatedBy:      s.CreatedBy,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		VisibleColumns: columnKeys(s.Selection),
		RowFilter:      s.RowFilter,
	}
	if r := s.Result; r != nil {
		resp.Stats = StatsResponse{
			SalesOrders:        r.Stats.SalesOrders,
			FinishedGoods:      r.Stats.FinishedGoods,
			RawMaterialsUnique: r.Stats.RawMaterialsUnique,
			RawMaterialsLines:  r.Stats.RawMaterialsLines,
			ItemsWithShortage:  r.Stats.ItemsWithShortage,
			Sufficient:         r.Stats.Sufficient,
			Short:              r.Stats.Short,
		}
		resp.Divergences = len(r.Divergences)
	}
	if len(s.MaterialRequests) > 0 {
		resp.MaterialRequests = FromMaterialRequests(s.MaterialRequests).Items
	}
	return resp
}

// CellResponse is one displayed cell.
type CellResponse struct {
	Text string `json:"text"`
	Tone string `json:"tone,omitempty"`
}

// ViewRowResponse is one displayed row.
type ViewRowResponse struct {
	Kind     string         `json:"kind"`
	ItemCode string         `json:"itemCode,omitempty"`
	Status   string         `json:"status,omitempty"`
	Cells    []CellResponse `json:"cells,omitempty"`
}

// ViewResponse is the table as currently displayed.
type ViewResponse struct {
	Columns   []ColumnResponse  `json:"columns"`
	Rows      []ViewRowResponse `json:"rows"`
	RowFilter string            `json:"rowFilter,omitempty"`
	Total     int               `json:"total"`
}

// FromView converts a projected view.
func FromView(v *reports.View) ViewResponse {
	rows := make([]ViewRowResponse, len(v.Rows))
	for i, row := range v.Rows {
		cells := make([]CellResponse, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = CellResponse{Text: cell.Text, Tone: string(cell.Tone)}
		}
		rows[i] = ViewRowResponse{
			Kind:     string(row.Kind),
			ItemCode: row.ItemCode,
			Status:   string(row.Status),
			Cells:    cells,
		}
	}
	return ViewResponse{
		Columns:   fromColumns(v.Columns),
		Rows:      rows,
		RowFilter: v.Filter,
		Total:     v.ContentRows(),
	}
}

// FromFileRef converts a generated file reference.
func FromFileRef(ref *analysis.FileRef) FileResponse {
	return FileResponse{FileURL: ref.FileURL, FileName: ref.FileName}
}

func fromColumns(cols []metadata.ColumnDef) []ColumnResponse {
	out := make([]ColumnResponse, len(cols))
	for i, col := range cols {
		out[i] = ColumnResponse{
			Key:            string(col.Key),
			Label:          col.Label,
			Align:          string(col.Align),
			DefaultVisible: col.DefaultVisible,
		}
	}
	return out
}

func columnKeys(sel metadata.Selection) []string {
	keys := sel.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
