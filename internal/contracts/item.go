package contracts

// NoBrand is the brand label used for items without a brand.
// It takes part in alternation like any other brand.
const NoBrand = "no-brand"

// Item is one catalog entry of a grouping
// ⭐ SSOT: 엔진 입력 타입은 여기서만 정의
type Item struct {
	ID              string         `json:"id"`
	Brand           string         `json:"brand"`
	Title           string         `json:"title,omitempty"`             // 레거시 교차 전략의 보조 그룹 키
	StockByLocation map[string]int `json:"stock_by_location,omitempty"` // location → quantity
	Price           *float64       `json:"price,omitempty"`             // nil = 가격 정보 없음 (0으로 취급)
}

// BrandLabel returns the brand, substituting NoBrand for an empty label
func (i *Item) BrandLabel() string {
	if i.Brand == "" {
		return NoBrand
	}
	return i.Brand
}

// PriceOrZero returns the price, treating missing as 0
func (i *Item) PriceOrZero() float64 {
	if i.Price == nil {
		return 0
	}
	return *i.Price
}

// Price is a helper for building items with a known price
func Price(v float64) *float64 {
	return &v
}
