package entity

import (
	"fmt"
	"strings"
)

const (
	RequestDefinitive       = "raccordement_definitif"
	RequestProvisional      = "raccordement_provisoire"
	RequestPowerIncrease    = "augmentation_puissance"
	RequestConnectionChange = "modification_branchement"
	RequestMeterMove        = "deplacement_compteur"
	RequestSiteServicing    = "viabilisation"

	PhaseMono = "monophase"
	PhaseTri  = "triphase"

	// Acima de 36 kVA o cliente sai do tarif bleu.
	TarifBleuMaxKVA = 36.0
	MonoMaxKVA      = 12.0
	MinPowerKVA     = 3.0
	MaxPowerKVA     = 250.0

	TVAPercent = 20
)

// Preço base HT em centavos de euro.
var basePriceCents = map[string]int64{
	RequestDefinitive:       89000,
	RequestProvisional:      49000,
	RequestPowerIncrease:    39000,
	RequestConnectionChange: 59000,
	RequestMeterMove:        45000,
	RequestSiteServicing:    129000,
}

var requestTypeLabels = map[string]string{
	RequestDefinitive:       "Raccordement définitif",
	RequestProvisional:      "Raccordement provisoire",
	RequestPowerIncrease:    "Augmentation de puissance",
	RequestConnectionChange: "Modification de branchement",
	RequestMeterMove:        "Déplacement de compteur",
	RequestSiteServicing:    "Viabilisation de terrain",
}

const (
	triphaseSurchargeCents  int64 = 15000
	highPowerSurchargeCents int64 = 30000
)

type Pricing struct {
	PriceHTCents  int64 `json:"price_ht_cents"`
	TVACents      int64 `json:"tva_cents"`
	PriceTTCCents int64 `json:"price_ttc_cents"`
}

func RequestTypes() []string {
	return []string{
		RequestDefinitive,
		RequestProvisional,
		RequestPowerIncrease,
		RequestConnectionChange,
		RequestMeterMove,
		RequestSiteServicing,
	}
}

func IsValidRequestType(t string) bool {
	_, ok := basePriceCents[t]
	return ok
}

func RequestTypeLabel(t string) string {
	if label, ok := requestTypeLabels[t]; ok {
		return label
	}
	return t
}

// ComputePricing applies the static grid. Unknown request types price at zero.
func ComputePricing(t Technical) Pricing {
	ht, ok := basePriceCents[t.RequestType]
	if !ok {
		return Pricing{}
	}
	if t.PhaseType == PhaseTri {
		ht += triphaseSurchargeCents
	}
	if t.PowerKVA > TarifBleuMaxKVA {
		ht += highPowerSurchargeCents
	}
	tva := ht * TVAPercent / 100
	return Pricing{
		PriceHTCents:  ht,
		TVACents:      tva,
		PriceTTCCents: ht + tva,
	}
}

// FormatEuros renders cents as "1 068,00 €".
func FormatEuros(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	units := fmt.Sprintf("%d", cents/100)
	var b strings.Builder
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s%s,%02d €", sign, b.String(), cents%100)
}
