package handler

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/sunilprojects/smart-campus-resource-management/internal/booking"
)

// RegisterValidators 向 gin 的校验器注册预约相关的绑定规则：
//
//	date  YYYY-MM-DD
//	clock HH:MM 或 HH:MM:SS（24 小时制）
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("date", validateDate); err != nil {
		return err
	}
	return v.RegisterValidation("clock", validateClock)
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(time.DateOnly, fl.Field().String())
	return err == nil
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := booking.ParseClock(fl.Field().String())
	return err == nil
}
