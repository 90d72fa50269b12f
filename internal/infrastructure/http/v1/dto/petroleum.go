package dto

import (
	"fueldepot/internal/domain/petroleum"
)

// CompartmentCalcRequest normalizes one compartment through 15°C.
type CompartmentCalcRequest struct {
	TruckVolume       float64 `json:"truckVolume" binding:"required"`
	TruckTemperature  float64 `json:"truckTemperature"`
	ActualTemperature float64 `json:"actualTemperature"`
	ProductCode       string  `json:"productCode" binding:"required"`
}

// ToInput converts to the calculator input.
func (r *CompartmentCalcRequest) ToInput() petroleum.CompartmentInput {
	return petroleum.CompartmentInput{
		TruckVolume:       r.TruckVolume,
		TruckTemperature:  r.TruckTemperature,
		ActualTemperature: r.ActualTemperature,
		ProductCode:       r.ProductCode,
	}
}

// DocumentCalcRequest reconciles a whole truck receipt without
// persisting anything.
type DocumentCalcRequest struct {
	Compartments []DocumentCalcCompartment `json:"compartments" binding:"required"`
}

// DocumentCalcCompartment is one compartment of a calculation request.
type DocumentCalcCompartment struct {
	TruckVolume    float64 `json:"truckVolume"`
	ActualVolume   float64 `json:"actualVolume"`
	ReceivedVolume float64 `json:"receivedVolume"`
	ProductCode    string  `json:"productCode" binding:"required"`
}

// ToCompartments converts to the calculator input.
func (r *DocumentCalcRequest) ToCompartments() []petroleum.DocumentCompartment {
	out := make([]petroleum.DocumentCompartment, len(r.Compartments))
	for i, comp := range r.Compartments {
		out[i] = petroleum.DocumentCompartment{
			TruckVolume:    comp.TruckVolume,
			ActualVolume:   comp.ActualVolume,
			ReceivedVolume: comp.ReceivedVolume,
			ProductCode:    comp.ProductCode,
		}
	}
	return out
}
