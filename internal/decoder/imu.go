package decoder

import "github.com/behrlich/go-davis/internal/events"

// imuTempOffsetC and imuTempDivisor convert the raw temperature reading to
// Celsius (spec.md §4.4.2).
const (
	imuTempDivisor  = 340.0
	imuTempOffsetC  = 36.53
	imuSampleCount  = 14
)

// calcAccelScale implements the accel LSB/g table for config values 0..3.
func calcAccelScale(cfg uint16) float32 {
	return 65536.0 / (4.0 * float32(uint32(1)<<cfg))
}

// calcGyroScale implements the gyro LSB/(deg/s) table for config values 0..3.
func calcGyroScale(cfg uint16) float32 {
	return 65536.0 / (500.0 * float32(uint32(1)<<cfg))
}

// imuStart handles special subtype 5: begin a new 14-byte reassembly.
func imuStart(s *State) {
	s.IMUIgnoreEvents = false
	s.IMUCount = 0
	s.IMUInProgress = events.IMU6{TimestampUs: uint32(s.CurrentTS)}
}

// imuScaleConfig handles special subtypes 16..31: decode accel/gyro scale
// and (re)arm the reassembly counter, recoverable if IMU-start was missed.
func imuScaleConfig(s *State, data uint16) {
	s.IMUAccelScale = calcAccelScale((data >> 2) & 3)
	s.IMUGyroScale = calcGyroScale(data & 3)
	s.IMUCount = 0
}

// imuSample handles code 5 with misc8_code == 0: one byte of the 7-word
// big-endian accel/temp/gyro record. Bytes arrive hi-then-lo per word, seven
// words in accelX, accelY, accelZ, temperature, gyroX, gyroY, gyroZ order.
// imu_count is the number of bytes already consumed; it reaches 14 exactly
// when the record is complete, matching the IMU-End validity check.
func imuSample(s *State, data uint8) {
	if s.IMUIgnoreEvents {
		return
	}
	if s.IMUCount >= imuSampleCount {
		s.Log.Warnf("imu sample after missed end, discarding: count=%d", s.IMUCount)
		return
	}

	if s.IMUCount%2 == 0 {
		s.IMUTmpData = data
		s.IMUCount++
		return
	}

	raw := int16(uint16(s.IMUTmpData)<<8 | uint16(data))
	assignIMUField(s, s.IMUCount+1, raw)
	s.IMUCount++
}

// assignIMUField stores a converted IMU value by the byte-count reached when
// its word completed (2, 4, 6, 8, 10, 12, 14).
func assignIMUField(s *State, count uint8, raw int16) {
	v := float32(raw)
	switch count {
	case 2:
		s.IMUInProgress.AccelX = v / s.IMUAccelScale
	case 4:
		s.IMUInProgress.AccelY = v / s.IMUAccelScale
	case 6:
		s.IMUInProgress.AccelZ = v / s.IMUAccelScale
	case 8:
		s.IMUInProgress.TemperatureC = v/imuTempDivisor + imuTempOffsetC
	case 10:
		s.IMUInProgress.GyroX = v / s.IMUGyroScale
	case 12:
		s.IMUInProgress.GyroY = v / s.IMUGyroScale
	case 14:
		s.IMUInProgress.GyroZ = v / s.IMUGyroScale
	}
}

// imuEnd handles special subtype 7: validate the assembly and, if complete,
// emit the event.
func imuEnd(s *State) {
	if s.IMUIgnoreEvents {
		s.Log.Warnf("imu end while ignoring events, discarding")
		return
	}
	if s.IMUCount != imuSampleCount {
		s.Log.Warnf("imu end with incomplete assembly: count=%d", s.IMUCount)
		return
	}
	s.IMUInProgress.Valid = true
	s.IMU6.Append(s.IMUInProgress)
	s.Sink.CommitCheck(s, ModalityIMU6)
}
