// internal/domain/insights.go
package domain

// ClusterRow is one consolidated item with its group-local cluster label.
type ClusterRow struct {
	ItemID             string  `json:"id_produto"`
	Name               string  `json:"nome"`
	Group              string  `json:"grupo"`
	Class              string  `json:"classe,omitempty"`
	Stock              float64 `json:"qt_estoque"`
	Consumption        float64 `json:"qt_consumo"`
	TotalCost          float64 `json:"custo_total"`
	UnitCost           float64 `json:"custo_unitario"`
	MonthlyConsumption float64 `json:"consumo_medio_mensal"`
	ClusterID          int     `json:"cluster_id"`
	Description        string  `json:"descricao_cluster"`
}

// RiskRow holds the variability and coverage metrics of one item.
type RiskRow struct {
	ItemID           string  `json:"id_produto"`
	Name             string  `json:"nome"`
	Group            string  `json:"grupo"`
	MeanConsumption  float64 `json:"consumo_medio"`
	StdConsumption   float64 `json:"consumo_std"`
	TotalConsumption float64 `json:"consumo_total"`
	MeanStock        float64 `json:"estoque_medio"`
	TotalCost        float64 `json:"custo_total_acumulado"`
	CV               float64 `json:"cv_consumo"`
	CoverageMonths   float64 `json:"cobertura_meses"`
	IsCritical       bool    `json:"is_critical"`
}

// RiskZone carries the decision boundary so the chart can redraw it.
type RiskZone struct {
	CVMin       float64 `json:"cv_min"`
	CoverageMax float64 `json:"cobertura_max"`
}

// RiskMeta summarizes one risk computation.
type RiskMeta struct {
	TotalCritical   int      `json:"total_criticos"`
	TotalItems      int      `json:"total_itens"`
	ZoomCoverageMax float64  `json:"cobertura_zoom_max"`
	CostThreshold   float64  `json:"limite_custo"`
	Zone            RiskZone `json:"zona_risco"`
}

// RiskResult is the payload of the risk view.
type RiskResult struct {
	Data []RiskRow `json:"data"`
	Meta RiskMeta  `json:"meta"`
}

// Seasonality classes.
const (
	SeasonalPeak  = "Seasonal/Peak"
	StableLinear  = "Stable/Linear"
	SeasonNeutral = "Neutral"
)

// MonthlyPoint is one month of an item's consumption history.
type MonthlyPoint struct {
	Period      string  `json:"periodo_str"`
	Year        int     `json:"ano"`
	Month       int     `json:"mes"`
	Consumption float64 `json:"qt_consumo"`
}

// SeasonalityRow classifies the demand shape of one item.
type SeasonalityRow struct {
	ItemID         string         `json:"id_produto"`
	Name           string         `json:"nome"`
	Group          string         `json:"grupo"`
	PeakRatio      float64        `json:"razao_pico"`
	CV             float64        `json:"cv"`
	Mean           float64        `json:"media"`
	Classification string         `json:"classificacao"`
	History        []MonthlyPoint `json:"historico"`
}

// ABC and XYZ classes.
const (
	ClassA = "A"
	ClassB = "B"
	ClassC = "C"
	ClassX = "X"
	ClassY = "Y"
	ClassZ = "Z"
)

// StrategicRow is one item of the capital-efficiency scatter.
type StrategicRow struct {
	ItemID            string  `json:"id_produto"`
	Name              string  `json:"nome"`
	Group             string  `json:"grupo"`
	ABC               string  `json:"classe_abc"`
	XYZ               string  `json:"classe_xyz"`
	Segment           string  `json:"segmento"`
	TotalCost         float64 `json:"custo_total"`
	CumulativeShare   float64 `json:"participacao_acumulada"`
	MeanConsumption   float64 `json:"consumo_medio"`
	CV                float64 `json:"cv"`
	MeanStock         float64 `json:"estoque_medio"`
	DaysOfCoverage    float64 `json:"dias_cobertura"`
	EstimatedUnitCost float64 `json:"custo_unitario_estimado"`
	ImmobilizedValue  float64 `json:"valor_imobilizado"`
}

// StrategicResult is the payload of the ABC-XYZ view.
type StrategicResult struct {
	Matrix      map[string]map[string]int `json:"matrix"`
	ScatterData []StrategicRow            `json:"scatter_data"`
	Zombies     []StrategicRow            `json:"zombies"`
}

// InflationRow is the cumulative price change of one item.
type InflationRow struct {
	ItemID       string  `json:"id_produto"`
	Name         string  `json:"nome"`
	Group        string  `json:"grupo"`
	FirstPrice   float64 `json:"preco_inicial"`
	LastPrice    float64 `json:"preco_final"`
	Months       int     `json:"meses"`
	InflationPct float64 `json:"inflacao_pct"`
}

// PricePoint is one month of an item's average unit price.
type PricePoint struct {
	ItemID    string  `json:"id_produto"`
	Name      string  `json:"nome"`
	Period    string  `json:"periodo"`
	UnitPrice float64 `json:"preco_medio"`
}

// InflationResult is the payload of the inflation view.
type InflationResult struct {
	TopItems []InflationRow `json:"top_items"`
	History  []PricePoint   `json:"history"`
}

// KPIs are the headline numbers of the overview page.
type KPIs struct {
	TotalItems       int     `json:"total_itens"`
	StockValue       float64 `json:"valor_estoque"`
	TotalConsumption float64 `json:"consumo_total"`
	ClusterCount     int     `json:"numero_clusters"`
	CriticalItems    int     `json:"itens_criticos"`
}

// Overview bundles every view for a single dashboard round trip.
type Overview struct {
	Dataset     DatasetInfo      `json:"dataset"`
	KPIs        KPIs             `json:"kpis"`
	Clusters    []ClusterRow     `json:"clusters"`
	Risk        RiskResult       `json:"risk"`
	Seasonality []SeasonalityRow `json:"seasonality"`
	Strategic   StrategicResult  `json:"strategic"`
	Inflation   InflationResult  `json:"inflation"`
}
