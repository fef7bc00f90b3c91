package module

import "verifiedorgs/internal/services/harvest/domain"

// Ports defines the harvest module ports
type Ports struct {
	Supervisor domain.SupervisorPort
	Checkpoint domain.CheckpointPort
	Progress   domain.ProgressPort
}
