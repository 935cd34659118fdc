package domain

// ShearConvergenceRecord is the aggregate output of one pipeline run: the
// os, od and ds shear/convergence terms and their LOS combination, plus
// the net deflection of the os and od multi-plane systems at the optical
// axis. Immutable once created.
type ShearConvergenceRecord struct {
	Gamma1OS float64 `json:"gamma1_os"`
	Gamma2OS float64 `json:"gamma2_os"`
	KappaOS  float64 `json:"kappa_os"`
	Alpha1OS float64 `json:"alpha1_os"`
	Alpha2OS float64 `json:"alpha2_os"`

	Gamma1OD float64 `json:"gamma1_od"`
	Gamma2OD float64 `json:"gamma2_od"`
	KappaOD  float64 `json:"kappa_od"`
	Alpha1OD float64 `json:"alpha1_od"`
	Alpha2OD float64 `json:"alpha2_od"`

	Gamma1DS float64 `json:"gamma1_ds"`
	Gamma2DS float64 `json:"gamma2_ds"`
	KappaDS  float64 `json:"kappa_ds"`

	Gamma1LOS float64 `json:"gamma1_los"`
	Gamma2LOS float64 `json:"gamma2_los"`
	KappaLOS  float64 `json:"kappa_los"`
}
