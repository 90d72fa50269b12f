// Package petroleum implements temperature compensation and transport
// loss arithmetic for fuel volumes. Volumes expand with temperature;
// commercial reconciliation converts everything through the 15°C
// reference volume before comparing truck, received and actual
// quantities.
package petroleum

import (
	"context"

	"fueldepot/internal/core/apperror"
	"fueldepot/internal/domain/catalogs/product"
)

// StandardTemperature is the reference temperature in °C.
const StandardTemperature = 15.0

// Volumetric expansion coefficients (β) per petroleum category, per °C.
var expansionCoefficients = map[product.Category]float64{
	product.CategoryGasoline: 0.0013,
	product.CategoryDiesel:   0.0009,
	product.CategoryKerosene: 0.001,
}

// Transport loss coefficients (α) per petroleum category. Kerosene has
// no published coefficient and falls back to the gasoline rate.
var lossCoefficients = map[product.Category]float64{
	product.CategoryGasoline: 0.00075,
	product.CategoryDiesel:   0.0003,
}

// ExpansionCoefficient returns β for a product code.
func ExpansionCoefficient(productCode string) float64 {
	return expansionCoefficients[product.CategoryFromCode(productCode)]
}

// LossCoefficient returns α for a product code.
func LossCoefficient(productCode string) float64 {
	if a, ok := lossCoefficients[product.CategoryFromCode(productCode)]; ok {
		return a
	}
	return lossCoefficients[product.CategoryGasoline]
}

// ToStandardVolume converts a volume observed at temperature t to the
// 15°C reference volume: V15 = Vt / (1 + β(t − 15)).
func ToStandardVolume(volumeAtTemp, temperature, beta float64) float64 {
	return volumeAtTemp / (1 + beta*(temperature-StandardTemperature))
}

// FromStandardVolume converts a 15°C reference volume to the volume at
// temperature t: Vt = V15 × (1 + β(t − 15)).
func FromStandardVolume(volumeAt15, temperature, beta float64) float64 {
	return volumeAt15 * (1 + beta*(temperature-StandardTemperature))
}

// AllowedLoss is the transport loss tolerance for a shipped volume.
func AllowedLoss(volume, alpha float64) float64 {
	return volume * alpha
}

// ExcessShortage is the signed reconciliation delta: positive means the
// depot received more than shipped minus tolerated loss, negative means
// an unexplained shortage.
func ExcessShortage(receivedVolume, actualLoss, allowedLoss float64) float64 {
	return receivedVolume - actualLoss - allowedLoss
}

// CompartmentInput describes one truck compartment as gauged at the
// loading terminal and at the depot.
type CompartmentInput struct {
	TruckVolume       float64 `json:"truckVolume"`
	TruckTemperature  float64 `json:"truckTemperature"`
	ActualTemperature float64 `json:"actualTemperature"`
	ProductCode       string  `json:"productCode"`
}

// CompartmentResult carries the derived volumes of one compartment.
type CompartmentResult struct {
	VolumeAt15     float64 `json:"volumeAt15"`
	ActualVolume   float64 `json:"actualVolume"`
	AllowedLoss    float64 `json:"allowedLoss"`
	ExpansionCoeff float64 `json:"expansionCoeff"`
	LossCoeff      float64 `json:"lossCoeff"`
}

// CalculateCompartment normalizes a compartment through the 15°C
// reference: truck volume → V15 → volume at the depot's actual
// temperature, plus the loss tolerance on the shipped volume.
func CalculateCompartment(ctx context.Context, in CompartmentInput) (CompartmentResult, error) {
	if in.TruckVolume < 0 {
		return CompartmentResult{}, apperror.NewValidation("truck volume cannot be negative")
	}
	if in.ProductCode == "" {
		return CompartmentResult{}, apperror.NewValidation("product code is required")
	}
	beta := ExpansionCoefficient(in.ProductCode)
	alpha := LossCoefficient(in.ProductCode)
	v15 := ToStandardVolume(in.TruckVolume, in.TruckTemperature, beta)
	return CompartmentResult{
		VolumeAt15:     v15,
		ActualVolume:   FromStandardVolume(v15, in.ActualTemperature, beta),
		AllowedLoss:    AllowedLoss(in.TruckVolume, alpha),
		ExpansionCoeff: beta,
		LossCoeff:      alpha,
	}, nil
}

// DocumentCompartment is one compartment line of a truck receipt.
type DocumentCompartment struct {
	TruckVolume    float64 `json:"truckVolume"`
	ActualVolume   float64 `json:"actualVolume"`
	ReceivedVolume float64 `json:"receivedVolume"`
	ProductCode    string  `json:"productCode"`
}

// ReceiptStatus classifies a reconciled truck receipt.
type ReceiptStatus string

const (
	StatusExcess   ReceiptStatus = "EXCESS"
	StatusShortage ReceiptStatus = "SHORTAGE"
	StatusNormal   ReceiptStatus = "NORMAL"
)

// DocumentResult is the reconciliation of a whole truck receipt.
type DocumentResult struct {
	ExpansionCoeff        float64       `json:"expansionCoeff"`
	LossCoeff             float64       `json:"lossCoeff"`
	TotalTruckVolume      float64       `json:"totalTruckVolume"`
	TotalActualVolume     float64       `json:"totalActualVolume"`
	TotalReceivedVolume   float64       `json:"totalReceivedVolume"`
	TotalLossVolume       float64       `json:"totalLossVolume"`
	AllowedLossVolume     float64       `json:"allowedLossVolume"`
	ExcessShortageVolume  float64       `json:"excessShortageVolume"`
	TemperatureAdjustment float64       `json:"temperatureAdjustmentVolume"`
	Status                ReceiptStatus `json:"status"`
}

// CalculateDocument reconciles a truck receipt against its shipped
// volumes. A truck carries a single product; the coefficients are taken
// from the first compartment.
func CalculateDocument(ctx context.Context, compartments []DocumentCompartment) (DocumentResult, error) {
	if len(compartments) == 0 {
		return DocumentResult{}, apperror.NewValidation("truck receipt requires at least one compartment")
	}
	beta := ExpansionCoefficient(compartments[0].ProductCode)
	alpha := LossCoefficient(compartments[0].ProductCode)

	res := DocumentResult{ExpansionCoeff: beta, LossCoeff: alpha}
	for _, comp := range compartments {
		res.TotalTruckVolume += comp.TruckVolume
		res.TotalActualVolume += comp.ActualVolume
		res.TotalReceivedVolume += comp.ReceivedVolume
		res.AllowedLossVolume += AllowedLoss(comp.TruckVolume, alpha)
	}
	res.TotalLossVolume = res.TotalTruckVolume - res.TotalReceivedVolume
	res.ExcessShortageVolume = ExcessShortage(res.TotalReceivedVolume, res.TotalLossVolume, res.AllowedLossVolume)
	res.TemperatureAdjustment = res.TotalActualVolume - res.TotalTruckVolume

	switch {
	case res.ExcessShortageVolume > 0:
		res.Status = StatusExcess
	case res.ExcessShortageVolume < 0:
		res.Status = StatusShortage
	default:
		res.Status = StatusNormal
	}
	return res, nil
}
