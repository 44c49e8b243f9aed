package models

import "time"

// Company is the client organization behind a prepaid account.
type Company struct {
	CompanyID    string    `json:"company_id"`
	CompanyName  string    `json:"company_name"`
	InviteCode   string    `json:"invite_code"`
	OperatorType string    `json:"operator_type"` // CLIENT or PLATFORM
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	AdministratorName  string `json:"administrator_name"`
	AdministratorPhone string `json:"administrator_phone"`

	// bcrypt hash, never serialized.
	AdministratorPasswordHash string `json:"-"`
}

type CompanyUpdateRequest struct {
	AdministratorName     string `json:"administrator_name"`
	AdministratorPhone    string `json:"administrator_phone"`
	AdministratorPassword string `json:"administrator_password"`
}

// OrderDetail carries the trip facts shown on the settlement detail
// view. The image path lists are opaque strings, never parsed here.
type OrderDetail struct {
	OrderID    string     `json:"order_id"`
	FinishTime *time.Time `json:"finish_time,omitempty"`

	CarPlate      string `json:"car_plate,omitempty"`
	LoadingAddr   string `json:"loading_addr,omitempty"`
	SenderName    string `json:"sender_name,omitempty"`
	SenderPhone   string `json:"sender_phone,omitempty"`
	UnloadingAddr string `json:"unloading_addr,omitempty"`
	ReceiverName  string `json:"receiver_name,omitempty"`
	ReceiverPhone string `json:"receiver_phone,omitempty"`

	GoodsVolume string `json:"goods_volume,omitempty"`
	GoodsNum    string `json:"goods_num,omitempty"`
	GoodsWeight string `json:"goods_weight,omitempty"`

	DemandCarType      string `json:"demand_car_type,omitempty"`
	IsCarpool          bool   `json:"is_carpool"`
	NeedCarry          bool   `json:"need_carry"`
	OtherLoadingDemand string `json:"other_loading_demand,omitempty"`
	TotalDistance      string `json:"total_distance,omitempty"`

	LoadingGoodsImgs   string `json:"loading_goods_imgs,omitempty"`
	LoadingCarImgs     string `json:"loading_car_imgs,omitempty"`
	UnloadingGoodsImgs string `json:"unloading_goods_imgs,omitempty"`
	UnloadingCarImgs   string `json:"unloading_car_imgs,omitempty"`
}
