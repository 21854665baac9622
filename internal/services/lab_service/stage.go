package lab_service

import labmodels "github.com/iwtcode/probeStation/models"

func (s *labService) GridPointCount(req labmodels.GridRequest) (string, error) {
	return s.client.GridPointCount(req)
}

func (s *labService) StagePositions() ([]labmodels.AxisPosition, error) {
	return s.client.StagePositions()
}

func (s *labService) MoveStage(axis string, position float64) error {
	if err := s.client.MoveStage(axis, position); err != nil {
		return err
	}
	s.logger.Info("Stage moved", "axis", axis, "position", position)
	return nil
}
