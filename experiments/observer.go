package experiments

import "github.com/iwtcode/probeStation/models"

// Виды прогонов в событиях RunFinished.
const (
	KindSweep          = "sweep"
	KindGridScan       = "grid"
	KindParameterSweep = "parameter_sweep"
)

// PointMeasured - одна точка внутреннего цикла развертки.
type PointMeasured struct {
	Curve      string        `json:"curve,omitempty"`
	Index      int           `json:"index"`
	Time       float64       `json:"time"`
	OuterLabel string        `json:"outer_label"`
	InnerLabel string        `json:"inner_label"`
	OuterValue float64       `json:"outer_value"`
	InnerValue float64       `json:"inner_value"`
	Outer      models.Sample `json:"outer"`
	Inner      models.Sample `json:"inner"`
}

// CurveFinished - кривая завершена. Path пуст, если данные не сохраняются.
type CurveFinished struct {
	Path       string                    `json:"path,omitempty"`
	OuterValue float64                   `json:"outer_value"`
	Counter    int                       `json:"measurement_counter"`
	Samples    int                       `json:"samples"`
	Labels     models.ChannelLabels      `json:"-"`
	Record     *models.MeasurementRecord `json:"-"`
}

// GridProgress - оценка хода после каждой точки сканирования.
type GridProgress struct {
	Label    string          `json:"label"`
	Progress models.Progress `json:"progress"`
	Text     string          `json:"text"`
}

// RunFinished - прогон завершился (успешно, остановкой или ошибкой).
type RunFinished struct {
	Kind    string `json:"kind"`
	Stopped bool   `json:"stopped"`
	Err     error  `json:"-"`
}

// Observer получает события движков. Вызывается из горутины прогона.
type Observer interface {
	PointMeasured(e PointMeasured)
	CurveFinished(e CurveFinished)
	GridProgress(e GridProgress)
	RunFinished(e RunFinished)
}

// ObserverFuncs адаптирует набор функций к Observer; незаданные пропускаются.
type ObserverFuncs struct {
	OnPoint    func(PointMeasured)
	OnCurve    func(CurveFinished)
	OnProgress func(GridProgress)
	OnFinish   func(RunFinished)
}

func (o ObserverFuncs) PointMeasured(e PointMeasured) {
	if o.OnPoint != nil {
		o.OnPoint(e)
	}
}

func (o ObserverFuncs) CurveFinished(e CurveFinished) {
	if o.OnCurve != nil {
		o.OnCurve(e)
	}
}

func (o ObserverFuncs) GridProgress(e GridProgress) {
	if o.OnProgress != nil {
		o.OnProgress(e)
	}
}

func (o ObserverFuncs) RunFinished(e RunFinished) {
	if o.OnFinish != nil {
		o.OnFinish(e)
	}
}

// Observers рассылает события всем наблюдателям по порядку.
type Observers []Observer

func (obs Observers) PointMeasured(e PointMeasured) {
	for _, o := range obs {
		o.PointMeasured(e)
	}
}

func (obs Observers) CurveFinished(e CurveFinished) {
	for _, o := range obs {
		o.CurveFinished(e)
	}
}

func (obs Observers) GridProgress(e GridProgress) {
	for _, o := range obs {
		o.GridProgress(e)
	}
}

func (obs Observers) RunFinished(e RunFinished) {
	for _, o := range obs {
		o.RunFinished(e)
	}
}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return ObserverFuncs{}
	}
	return o
}
