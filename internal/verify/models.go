// Package verify implements the credential verification pipeline: independent
// integrity checks composed per credential type into a partial, fault-isolated
// verdict.
package verify

// Verdict is the composite verification result. The field set is exactly
// determined by the credential type: ShapeFile is present only for land
// deeds, absent (not false) otherwise.
type Verdict struct {
	VC        bool  `json:"vc"`
	OnChainVC bool  `json:"onChainVC"`
	ShapeFile *bool `json:"shapeFile,omitempty"`
}

// Check names used in metrics and logs.
const (
	checkJWT       = "jwt"
	checkOnChain   = "onchain"
	checkShapefile = "shapefile"
)
