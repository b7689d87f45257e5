package engine

import "github.com/gyeh/cms-pricing/internal/domain"

// Table dispatches a PlanComponent's Setting to its Engine.
type Table map[domain.Setting]Engine

// NewTable assembles the dispatch table from one store implementing
// every engine's narrow interface — typically the pgx-backed schedule
// store, or a fake in tests.
func NewTable(store interface {
	MPFSStore
	OPPSStore
	IPPSStore
	ASCStore
	CLFSStore
	DMEPOSStore
	DrugStore
}) Table {
	return Table{
		domain.SettingPhysician:  NewMPFSEngine(store),
		domain.SettingOutpatient: NewOPPSEngine(store),
		domain.SettingInpatient:  NewIPPSEngine(store),
		domain.SettingASC:        NewASCEngine(store),
		domain.SettingCLFS:       NewCLFSEngine(store),
		domain.SettingDMEPOS:     NewDMEPOSEngine(store),
		domain.SettingDrug:       NewDrugEngine(store),
	}
}
