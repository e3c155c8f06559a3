// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sei

import "strconv"

// PayloadType SEI 消息类型
type PayloadType uint32

// SEI payloadType (Table D-1 及后续修订)
const (
	TypeBufferingPeriod                        PayloadType = 0
	TypePicTiming                              PayloadType = 1
	TypePanScanRect                            PayloadType = 2
	TypeFillerPayload                          PayloadType = 3
	TypeUserDataRegisteredITUTT35              PayloadType = 4
	TypeUserDataUnregistered                   PayloadType = 5
	TypeRecoveryPoint                          PayloadType = 6
	TypeDecRefPicMarkingRepetition             PayloadType = 7
	TypeSparePic                               PayloadType = 8
	TypeSceneInfo                              PayloadType = 9
	TypeSubSeqInfo                             PayloadType = 10
	TypeSubSeqLayerCharacteristics             PayloadType = 11
	TypeSubSeqCharacteristics                  PayloadType = 12
	TypeFullFrameFreeze                        PayloadType = 13
	TypeFullFrameFreezeRelease                 PayloadType = 14
	TypeFullFrameSnapshot                      PayloadType = 15
	TypeProgressiveRefinementSegmentStart      PayloadType = 16
	TypeProgressiveRefinementSegmentEnd        PayloadType = 17
	TypeMotionConstrainedSliceGroupSet         PayloadType = 18
	TypeFilmGrainCharacteristics               PayloadType = 19
	TypeDeblockingFilterDisplayPreference      PayloadType = 20
	TypeStereoVideoInfo                        PayloadType = 21
	TypePostFilterHint                         PayloadType = 22
	TypeToneMappingInfo                        PayloadType = 23
	TypeScalabilityInfo                        PayloadType = 24
	TypeSubPicScalableLayer                    PayloadType = 25
	TypeNonRequiredLayerRep                    PayloadType = 26
	TypePriorityLayerInfo                      PayloadType = 27
	TypeLayersNotPresent                       PayloadType = 28
	TypeLayerDependencyChange                  PayloadType = 29
	TypeScalableNesting                        PayloadType = 30
	TypeBaseLayerTemporalHrd                   PayloadType = 31
	TypeQualityLayerIntegrityCheck             PayloadType = 32
	TypeRedundantPicProperty                   PayloadType = 33
	TypeTl0DepRepIndex                         PayloadType = 34
	TypeTlSwitchingPoint                       PayloadType = 35
	TypeParallelDecodingInfo                   PayloadType = 36
	TypeMvcScalableNesting                     PayloadType = 37
	TypeViewScalabilityInfo                    PayloadType = 38
	TypeMultiviewSceneInfo                     PayloadType = 39
	TypeMultiviewAcquisitionInfo               PayloadType = 40
	TypeNonRequiredViewComponent               PayloadType = 41
	TypeViewDependencyChange                   PayloadType = 42
	TypeOperationPointsNotPresent              PayloadType = 43
	TypeBaseViewTemporalHrd                    PayloadType = 44
	TypeFramePackingArrangement                PayloadType = 45
	TypeMultiviewViewPosition                  PayloadType = 46
	TypeDisplayOrientation                     PayloadType = 47
	TypeMvcdScalableNesting                    PayloadType = 48
	TypeMvcdViewScalabilityInfo                PayloadType = 49
	TypeDepthRepresentationInfo                PayloadType = 50
	TypeThreeDimensionalReferenceDisplaysInfo  PayloadType = 51
	TypeDepthTiming                            PayloadType = 52
	TypeDepthSamplingInfo                      PayloadType = 53
	TypeConstrainedDepthParameterSetIdentifier PayloadType = 54
	TypeGreenMetadata                          PayloadType = 56
	TypeMasteringDisplayColourVolume           PayloadType = 137
	TypeColourRemappingInfo                    PayloadType = 142
	TypeContentLightLevelInfo                  PayloadType = 144
	TypeAlternativeTransferCharacteristics     PayloadType = 147
	TypeAmbientViewingEnvironment              PayloadType = 148
	TypeContentColourVolume                    PayloadType = 149
	TypeEquirectangularProjection              PayloadType = 150
	TypeCubemapProjection                      PayloadType = 151
	TypeSphereRotation                         PayloadType = 154
	TypeRegionwisePacking                      PayloadType = 155
	TypeOmniViewport                           PayloadType = 156
	TypeAlternativeDepthInfo                   PayloadType = 181
	TypeSeiManifest                            PayloadType = 200
	TypeSeiPrefixIndication                    PayloadType = 201
)

var payloadTypeNames = map[PayloadType]string{
	TypeBufferingPeriod:                        "buffering_period",
	TypePicTiming:                              "pic_timing",
	TypePanScanRect:                            "pan_scan_rect",
	TypeFillerPayload:                          "filler_payload",
	TypeUserDataRegisteredITUTT35:              "user_data_registered_itu_t_t35",
	TypeUserDataUnregistered:                   "user_data_unregistered",
	TypeRecoveryPoint:                          "recovery_point",
	TypeDecRefPicMarkingRepetition:             "dec_ref_pic_marking_repetition",
	TypeSparePic:                               "spare_pic",
	TypeSceneInfo:                              "scene_info",
	TypeSubSeqInfo:                             "sub_seq_info",
	TypeSubSeqLayerCharacteristics:             "sub_seq_layer_characteristics",
	TypeSubSeqCharacteristics:                  "sub_seq_characteristics",
	TypeFullFrameFreeze:                        "full_frame_freeze",
	TypeFullFrameFreezeRelease:                 "full_frame_freeze_release",
	TypeFullFrameSnapshot:                      "full_frame_snapshot",
	TypeProgressiveRefinementSegmentStart:      "progressive_refinement_segment_start",
	TypeProgressiveRefinementSegmentEnd:        "progressive_refinement_segment_end",
	TypeMotionConstrainedSliceGroupSet:         "motion_constrained_slice_group_set",
	TypeFilmGrainCharacteristics:               "film_grain_characteristics",
	TypeDeblockingFilterDisplayPreference:      "deblocking_filter_display_preference",
	TypeStereoVideoInfo:                        "stereo_video_info",
	TypePostFilterHint:                         "post_filter_hint",
	TypeToneMappingInfo:                        "tone_mapping_info",
	TypeScalabilityInfo:                        "scalability_info",
	TypeSubPicScalableLayer:                    "sub_pic_scalable_layer",
	TypeNonRequiredLayerRep:                    "non_required_layer_rep",
	TypePriorityLayerInfo:                      "priority_layer_info",
	TypeLayersNotPresent:                       "layers_not_present",
	TypeLayerDependencyChange:                  "layer_dependency_change",
	TypeScalableNesting:                        "scalable_nesting",
	TypeBaseLayerTemporalHrd:                   "base_layer_temporal_hrd",
	TypeQualityLayerIntegrityCheck:             "quality_layer_integrity_check",
	TypeRedundantPicProperty:                   "redundant_pic_property",
	TypeTl0DepRepIndex:                         "tl0_dep_rep_index",
	TypeTlSwitchingPoint:                       "tl_switching_point",
	TypeParallelDecodingInfo:                   "parallel_decoding_info",
	TypeMvcScalableNesting:                     "mvc_scalable_nesting",
	TypeViewScalabilityInfo:                    "view_scalability_info",
	TypeMultiviewSceneInfo:                     "multiview_scene_info",
	TypeMultiviewAcquisitionInfo:               "multiview_acquisition_info",
	TypeNonRequiredViewComponent:               "non_required_view_component",
	TypeViewDependencyChange:                   "view_dependency_change",
	TypeOperationPointsNotPresent:              "operation_points_not_present",
	TypeBaseViewTemporalHrd:                    "base_view_temporal_hrd",
	TypeFramePackingArrangement:                "frame_packing_arrangement",
	TypeMultiviewViewPosition:                  "multiview_view_position",
	TypeDisplayOrientation:                     "display_orientation",
	TypeMvcdScalableNesting:                    "mvcd_scalable_nesting",
	TypeMvcdViewScalabilityInfo:                "mvcd_view_scalability_info",
	TypeDepthRepresentationInfo:                "depth_representation_info",
	TypeThreeDimensionalReferenceDisplaysInfo:  "three_dimensional_reference_displays_info",
	TypeDepthTiming:                            "depth_timing",
	TypeDepthSamplingInfo:                      "depth_sampling_info",
	TypeConstrainedDepthParameterSetIdentifier: "constrained_depth_parameter_set_identifier",
	TypeGreenMetadata:                          "green_metadata",
	TypeMasteringDisplayColourVolume:           "mastering_display_colour_volume",
	TypeColourRemappingInfo:                    "colour_remapping_info",
	TypeContentLightLevelInfo:                  "content_light_level_info",
	TypeAlternativeTransferCharacteristics:     "alternative_transfer_characteristics",
	TypeAmbientViewingEnvironment:              "ambient_viewing_environment",
	TypeContentColourVolume:                    "content_colour_volume",
	TypeEquirectangularProjection:              "equirectangular_projection",
	TypeCubemapProjection:                      "cubemap_projection",
	TypeSphereRotation:                         "sphere_rotation",
	TypeRegionwisePacking:                      "regionwise_packing",
	TypeOmniViewport:                           "omni_viewport",
	TypeAlternativeDepthInfo:                   "alternative_depth_info",
	TypeSeiManifest:                            "sei_manifest",
	TypeSeiPrefixIndication:                    "sei_prefix_indication",
}

// String returns the syntax name of the payload type, such as "pic_timing".
func (t PayloadType) String() string {
	if name, ok := payloadTypeNames[t]; ok {
		return name
	}
	return "reserved_sei_message(" + strconv.FormatUint(uint64(t), 10) + ")"
}
